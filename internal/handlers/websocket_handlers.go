package handlers

import (
	"log"
	"net/http"

	"leaflog/internal/middleware"
	"leaflog/internal/websocket"

	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are filtered by the CORS layer in front of the mux.
		return true
	},
}

// HandleCommentsWebSocket upgrades the connection and attaches the
// client to a post's comment stream. The first watcher of a post
// expands the backing subscription; the last one to leave collapses it.
func (s *Server) HandleCommentsWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := r.URL.Query().Get("postId")
		if postID == "" {
			http.Error(w, "Missing post ID", http.StatusBadRequest)
			return
		}

		// Browsers cannot set headers on websocket requests, so the
		// token rides in the query string. Anonymous viewers may watch.
		if tokenString := r.URL.Query().Get("token"); tokenString != "" {
			if _, err := middleware.ValidateToken(tokenString, s.JWTSecret); err != nil {
				log.Printf("WebSocket connection failed: invalid token: %v", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for post %s: %v", postID, err)
			return
		}

		client := &websocket.Client{
			Hub:    s.Hub,
			PostID: postID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
