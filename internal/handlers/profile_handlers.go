package handlers

import (
	"encoding/json"
	"net/http"

	"leaflog/internal/engine/actors"
	"leaflog/internal/middleware"
	"leaflog/internal/utils"
)

// UpdateProfileRequest represents an edit to the viewer's own profile
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	PhotoURL    string `json:"photoUrl"`
}

// HandleProfile handles profile lookup and self-editing
func (s *Server) HandleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			uid := r.URL.Query().Get("uid")
			if uid == "" {
				uid, _ = middleware.GetUserIDFromContext(r.Context())
			}
			if uid == "" {
				http.Error(w, "Missing user ID", http.StatusBadRequest)
				return
			}

			result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.GetProfileMsg{UID: uid}, "ProfileActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, result)

		case http.MethodPut:
			viewer, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				respondAppError(w, utils.NewUnauthenticatedError("editing a profile requires a signed-in viewer"))
				return
			}

			var req UpdateProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.UpdateProfileMsg{
				UID:         viewer,
				DisplayName: req.DisplayName,
				Bio:         req.Bio,
				PhotoURL:    req.PhotoURL,
			}, "ProfileActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// FollowRequest toggles the follow edge between the viewer and a target
type FollowRequest struct {
	Target string `json:"target"`
	Follow bool   `json:"follow"`
}

// HandleFollow follows or unfollows a target user on behalf of the
// viewer. Both sides of the relationship move together.
func (s *Server) HandleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		viewer, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			respondAppError(w, utils.NewUnauthenticatedError("following requires a signed-in viewer"))
			return
		}

		var req FollowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Target == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.ToggleFollowMsg{
			Viewer: viewer,
			Target: req.Target,
			Follow: req.Follow,
		}, "ProfileActor")
		if appErr != nil {
			respondAppError(w, appErr)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
