package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// AssistRequest asks for a draft review and quote for a book.
type AssistRequest struct {
	BookTitle  string `json:"bookTitle"`
	BookAuthor string `json:"bookAuthor"`
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"uptime":      s.Metrics.Uptime().String(),
			"server_time": time.Now(),
		})
	}
}

// HandleMetrics exposes per-operation latency and error counts.
func (s *Server) HandleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"uptime":     s.Metrics.Uptime().String(),
			"operations": s.Metrics.Snapshot(),
		})
	}
}

// HandleAssist drafts a review and quote for the compose form. When no
// assist backend is configured, the endpoint reports itself absent
// rather than failing; composing never depends on it.
func (s *Server) HandleAssist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.Assist == nil || !s.Assist.Available() {
			respondJSON(w, http.StatusOK, map[string]interface{}{"available": false})
			return
		}

		var req AssistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookTitle == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		suggestion, err := s.Assist.Suggest(r.Context(), req.BookTitle, req.BookAuthor)
		if err != nil {
			// Assist is best effort. A failed or malformed backend reply
			// degrades to "no assistance", same as having no backend.
			log.Printf("Assist request failed: %v", err)
			respondJSON(w, http.StatusOK, map[string]interface{}{"available": false})
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"available":  true,
			"suggestion": suggestion,
		})
	}
}
