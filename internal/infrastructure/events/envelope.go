package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nftlend-backend/internal/domain/event"
)

// Envelope is the wire form of a committed event.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    event.Event `json:"payload"`
}

func NewEnvelope(e event.Event, now time.Time) Envelope {
	return Envelope{ID: uuid.NewString(), Type: e.EventType(), OccurredAt: now.UTC(), Payload: e}
}

// LogEmitter writes each event to the log.
type LogEmitter struct{ Logger *zap.Logger }

func (l LogEmitter) Emit(_ context.Context, e event.Event) {
	l.Logger.Info("event", zap.String("type", e.EventType()), zap.Any("payload", e))
}

// Fanout delivers each event to every emitter in order.
type Fanout []event.Emitter

func (f Fanout) Emit(ctx context.Context, e event.Event) {
	for _, em := range f {
		em.Emit(ctx, e)
	}
}
