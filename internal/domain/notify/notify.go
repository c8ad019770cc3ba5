package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	EventQuoteCreated        = "quote.created"
	EventQuoteRevised        = "quote.revised"
	EventQuoteStatusChanged  = "quote.status_changed"
	EventCircuitStageChanged = "circuit.stage_changed"
	EventCircuitMilestone    = "circuit.milestone_added"
)

type Event struct {
	Type    string         `json:"event"`
	Subject string         `json:"subject"`
	UserID  string         `json:"user_id,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Log writes events to the structured log.
type Log struct {
	Logger *zap.Logger
}

func (n Log) Notify(_ context.Context, ev Event) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.Info("notify",
		zap.String("event", ev.Type),
		zap.String("subject", ev.Subject),
		zap.String("user_id", ev.UserID),
		zap.String("message", ev.Message),
		zap.Any("data", ev.Data),
	)
	return nil
}

// Multi fans an event out to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
