package handlers

import (
	"encoding/json"
	"net/http"

	"leaflog/internal/engine/actors"
	"leaflog/internal/middleware"
	"leaflog/internal/models"
	"leaflog/internal/utils"
)

// CreatePostRequest represents a request to publish a reading post
type CreatePostRequest struct {
	BookTitle  string           `json:"bookTitle"`
	BookAuthor string           `json:"bookAuthor"`
	CoverImage string           `json:"coverImage,omitempty"`
	Quote      string           `json:"quote,omitempty"`
	Review     string           `json:"review,omitempty"`
	Rating     int              `json:"rating"`
	Location   *models.Location `json:"location,omitempty"`
}

// HandlePost handles post publishing, lookup, and deletion
func (s *Server) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			viewer, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				respondAppError(w, utils.NewUnauthenticatedError("publishing requires a signed-in viewer"))
				return
			}

			var req CreatePostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			// The author snapshot is denormalized onto the post at
			// publish time and never retroactively updated.
			result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.GetProfileMsg{UID: viewer}, "ProfileActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}
			author := result.(*models.UserProfile)

			result, appErr = s.ask(s.Engine.GetPostActor(), &actors.CreatePostMsg{
				Author:     author,
				BookTitle:  req.BookTitle,
				BookAuthor: req.BookAuthor,
				CoverImage: req.CoverImage,
				Quote:      req.Quote,
				Review:     req.Review,
				Rating:     req.Rating,
				Location:   req.Location,
			}, "PostActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, result)

		case http.MethodGet:
			postID := r.URL.Query().Get("postId")
			if postID == "" {
				http.Error(w, "Missing post ID", http.StatusBadRequest)
				return
			}

			result, appErr := s.ask(s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID}, "PostActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			viewer, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				respondAppError(w, utils.NewUnauthenticatedError("deleting requires a signed-in viewer"))
				return
			}

			postID := r.URL.Query().Get("postId")
			if postID == "" {
				http.Error(w, "Missing post ID", http.StatusBadRequest)
				return
			}

			_, appErr := s.ask(s.Engine.GetPostActor(), &actors.DeletePostMsg{
				PostID: postID,
				Viewer: viewer,
			}, "PostActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, map[string]bool{"success": true})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
