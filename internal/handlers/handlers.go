package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"leaflog/internal/assist"
	"leaflog/internal/database"
	"leaflog/internal/engine"
	"leaflog/internal/identity"
	"leaflog/internal/utils"
	"leaflog/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Store          database.Store
	Hub            *websocket.Hub
	Assist         *assist.Client
	Verifier       identity.Verifier
	Session        *identity.Session
	JWTSecret      string
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	store database.Store,
	hub *websocket.Hub,
	assistClient *assist.Client,
	verifier identity.Verifier,
	session *identity.Session,
	jwtSecret string,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		Store:          store,
		Hub:            hub,
		Assist:         assistClient,
		Verifier:       verifier,
		Session:        session,
		JWTSecret:      jwtSecret,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// ask sends a message to an actor and resolves the reply, translating
// actor timeouts and AppError replies into a single error channel.
func (s *Server) ask(pid *actor.PID, msg interface{}, actorName string) (interface{}, *utils.AppError) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		log.Printf("Actor request to %s failed: %v", actorName, err)
		return nil, utils.NewActorTimeoutError(actorName)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondAppError(w http.ResponseWriter, appErr *utils.AppError) {
	respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]string{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
