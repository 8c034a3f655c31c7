package handlers

import (
	"encoding/json"
	"net/http"

	"leaflog/internal/engine/actors"
	"leaflog/internal/middleware"
	"leaflog/internal/models"
	"leaflog/internal/utils"
)

// maxMapMarkers caps how many located posts the map view loads.
const maxMapMarkers = 200

// FeedResponse is the wire shape of a feed page. Error is non-empty
// when the last page fetch failed; already-loaded posts are still
// returned so the client keeps what it has.
type FeedResponse struct {
	Posts     []*models.Post `json:"posts"`
	Exhausted bool           `json:"exhausted"`
	Loading   bool           `json:"loading"`
	Error     string         `json:"error,omitempty"`
}

func feedResponse(state *actors.FeedState) FeedResponse {
	resp := FeedResponse{
		Posts:     state.Posts,
		Exhausted: state.Exhausted,
		Loading:   state.Loading,
	}
	if state.Error != nil {
		resp.Error = state.Error.Message
	}
	return resp
}

// HandleFeed loads the first page of the global or following feed.
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, _ := middleware.GetUserIDFromContext(r.Context())

		mode := models.FeedGlobal
		if r.URL.Query().Get("mode") == string(models.FeedFollowing) {
			mode = models.FeedFollowing
		}

		var following []string
		if mode == models.FeedFollowing {
			if viewer == "" {
				respondAppError(w, utils.NewUnauthenticatedError("the following feed needs a viewer"))
				return
			}
			result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.GetProfileMsg{UID: viewer}, "ProfileActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}
			following = result.(*models.UserProfile).Following
		}

		result, appErr := s.ask(s.Engine.FeedFor(viewer), &actors.LoadInitialMsg{
			Mode:      mode,
			Viewer:    viewer,
			Following: following,
		}, "FeedActor")
		if appErr != nil {
			respondAppError(w, appErr)
			return
		}

		respondJSON(w, http.StatusOK, feedResponse(result.(*actors.FeedState)))
	}
}

// HandleFeedMore appends the next page to the viewer's feed. Repeated
// calls while a fetch is in flight return the current state without
// issuing another query.
func (s *Server) HandleFeedMore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, _ := middleware.GetUserIDFromContext(r.Context())

		result, appErr := s.ask(s.Engine.FeedFor(viewer), &actors.LoadMoreMsg{}, "FeedActor")
		if appErr != nil {
			respondAppError(w, appErr)
			return
		}

		respondJSON(w, http.StatusOK, feedResponse(result.(*actors.FeedState)))
	}
}

// HandleLike toggles the viewer's like on a post in their feed.
func (s *Server) HandleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			respondAppError(w, utils.NewUnauthenticatedError("liking requires a signed-in viewer"))
			return
		}

		var req struct {
			PostID string `json:"postId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, appErr := s.ask(s.Engine.FeedFor(viewer), &actors.ToggleLikeMsg{
			PostID: req.PostID,
			Viewer: viewer,
		}, "FeedActor")
		if appErr != nil {
			respondAppError(w, appErr)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// HandleMapLocations lists the posts carrying a reading location, for
// the map view. This is a plain store read with no feed state attached.
func (s *Server) HandleMapLocations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		posts, err := s.Store.LocatedPosts(r.Context(), maxMapMarkers)
		if err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				respondAppError(w, appErr)
				return
			}
			http.Error(w, "Failed to load locations", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
	}
}

// HandleTrending returns the popularity sidebar ranking.
func (s *Server) HandleTrending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		result, appErr := s.ask(s.Engine.GetTrendingActor(), &actors.GetTrendingMsg{}, "TrendingActor")
		if appErr != nil {
			respondAppError(w, appErr)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
