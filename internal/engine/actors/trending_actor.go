package actors

import (
	"context"
	"time"

	"leaflog/internal/database"
	"leaflog/internal/models"
	"leaflog/internal/ranking"
	"leaflog/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// GetTrendingMsg asks for the current top-books ranking.
type GetTrendingMsg struct{}

// TrendingState carries the derived ranking.
type TrendingState struct {
	Books []models.RankedBook `json:"books"`
}

// TrendingActor derives the popularity sidebar from the most recent
// posts. The ranking is recomputed per request and never persisted.
type TrendingActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewTrendingActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &TrendingActor{store: store, metrics: metrics}
}

func (a *TrendingActor) Receive(c actor.Context) {
	switch c.Message().(type) {
	case *GetTrendingMsg:
		start := time.Now()
		sample, err := a.store.RecentPosts(context.Background(), ranking.TrendingSampleSize)
		if err != nil {
			a.metrics.AddOperationError("trending")
			c.Respond(asAppError(err, "failed to load ranking sample"))
			return
		}
		books := ranking.TopBooks(sample, ranking.TrendingSize)
		a.metrics.AddOperationLatency("trending", time.Since(start))
		c.Respond(&TrendingState{Books: books})
	}
}
