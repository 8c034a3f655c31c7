package handlers

import (
	"encoding/json"
	"net/http"

	"leaflog/internal/engine/actors"
	"leaflog/internal/middleware"
	"leaflog/internal/models"
	"leaflog/internal/utils"
)

// CreateCommentRequest represents a request to create a new comment
type CreateCommentRequest struct {
	PostID string `json:"postId"`
	Text   string `json:"text"`
}

// EditCommentRequest represents a request to edit an existing comment
type EditCommentRequest struct {
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
	Text      string `json:"text"`
}

// HandleComment handles comment creation, editing, and deletion. All
// three go through the post's comment stream actor so the realtime
// snapshot and the mutation share one mailbox.
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			viewer, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				respondAppError(w, utils.NewUnauthenticatedError("commenting requires a signed-in viewer"))
				return
			}

			var req CreateCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.GetProfileMsg{UID: viewer}, "ProfileActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}
			author := result.(*models.UserProfile)

			result, appErr = s.ask(s.Engine.CommentStreamFor(req.PostID), &actors.AddCommentMsg{
				Text:   req.Text,
				Author: author,
			}, "CommentStreamActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, result)

		case http.MethodPut:
			viewer, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				respondAppError(w, utils.NewUnauthenticatedError("editing requires a signed-in viewer"))
				return
			}

			var req EditCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" || req.CommentID == "" {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			_, appErr := s.ask(s.Engine.CommentStreamFor(req.PostID), &actors.EditCommentMsg{
				CommentID: req.CommentID,
				Viewer:    viewer,
				Text:      req.Text,
			}, "CommentStreamActor")
			if appErr != nil {
				respondAppError(w, appErr)
				return
			}

			respondJSON(w, http.StatusOK, map[string]bool{"success": true})

		case http.MethodDelete:
			viewer, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				respondAppError(w, utils.NewUnauthenticatedError("deleting requires a signed-in viewer"))
				return
			}

			postID := r.URL.Query().Get("postId")
			commentID := r.URL.Query().Get("commentId")
			if postID == "" || commentID == "" {
				http.Error(w, "Missing post ID or comment ID", http.StatusBadRequest)
				return
			}

			_, appErr := s.ask(s.Engine.CommentStreamFor(postID), &actors.DeleteCommentMsg{
				CommentID: commentID,
				Viewer:    viewer,
			}, "CommentStreamActor")
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

// HandleGetPostComments retrieves the comments under a post, oldest
// first. Served straight from the store; the realtime stream is only
// attached through the websocket endpoint.
func (s *Server) HandleGetPostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		postID := r.URL.Query().Get("postId")
		if postID == "" {
			http.Error(w, "Missing post ID", http.StatusBadRequest)
			return
		}

		comments, err := s.Store.ListComments(r.Context(), postID)
		if err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				respondAppError(w, appErr)
				return
			}
			http.Error(w, "Failed to get comments", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
	}
}
