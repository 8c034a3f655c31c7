package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"leaflog/internal/engine/actors"
	"leaflog/internal/middleware"
	"leaflog/internal/models"
	"leaflog/internal/utils"
)

// LoginRequest carries the identity provider's ID token.
type LoginRequest struct {
	IDToken string `json:"idToken"`
}

// LoginResponse returns the API token and the ensured profile.
type LoginResponse struct {
	Token   string              `json:"token"`
	Profile *models.UserProfile `json:"profile"`
}

// HandleLogin exchanges a provider ID token for an API token. The
// profile document is created on first sign-in and refreshed from the
// provider identity on every later one.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if req.IDToken == "" {
			http.Error(w, "Missing ID token", http.StatusBadRequest)
			return
		}

		id, err := s.Verifier.Verify(r.Context(), req.IDToken)
		if err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				respondAppError(w, appErr)
				return
			}
			http.Error(w, "Invalid ID token", http.StatusUnauthorized)
			return
		}

		result, appErr := s.ask(s.Engine.GetProfileActor(), &actors.EnsureProfileMsg{Identity: *id}, "ProfileActor")
		if appErr != nil {
			respondAppError(w, appErr)
			return
		}
		profile := result.(*models.UserProfile)

		// The session is process-wide, so a later login replaces it. It
		// only backs the fallback identity lookup for comment authors;
		// every request path otherwise carries the viewer in its token.
		s.Session.Attach(*id)

		token, err := middleware.GenerateToken(id.UID, s.JWTSecret)
		if err != nil {
			log.Printf("Error generating token for %s: %v", id.UID, err)
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, LoginResponse{Token: token, Profile: profile})
	}
}

// HandleLogout detaches the active session identity. Tokens are
// stateless, so the client simply discards its copy.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.Session.Detach()
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
