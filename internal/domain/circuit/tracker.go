package circuit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/domain/notify"
)

type Store interface {
	ListTracking(ctx context.Context) ([]Tracking, error)
	ListAcceptedOrders(ctx context.Context) ([]AcceptedOrder, error)
	// InsertTracking persists t and returns the generated id.
	InsertTracking(ctx context.Context, t Tracking) (string, error)
	UpdateStage(ctx context.Context, id, stage string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	InsertMilestone(ctx context.Context, m Milestone) (string, error)
	ListMilestones(ctx context.Context, trackingID string) ([]Milestone, error)
}

type Tracker struct {
	Store    Store
	Notifier notify.Notifier
	Log      *zap.Logger
}

func NewTracker(store Store, notifier notify.Notifier, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Tracker{Store: store, Notifier: notifier, Log: log}
}

// Board returns real tracking rows plus virtual rows for untracked circuits.
func (t *Tracker) Board(ctx context.Context) ([]Tracking, error) {
	existing, err := t.Store.ListTracking(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracking: %w", err)
	}
	orders, err := t.Store.ListAcceptedOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accepted orders: %w", err)
	}
	return Materialize(existing, orders), nil
}

func (t *Tracker) UpdateStage(ctx context.Context, id, stage string) (string, error) {
	stage = NormalizeStage(stage)
	if stage == "" {
		return "", ErrInvalidStage
	}
	realID, err := t.ensureReal(ctx, id)
	if err != nil {
		return "", err
	}
	if err := t.Store.UpdateStage(ctx, realID, stage); err != nil {
		return "", fmt.Errorf("update stage %s: %w", realID, err)
	}
	t.Log.Info("circuit stage updated", zap.String("id", realID), zap.String("stage", stage))
	t.notify(ctx, notify.Event{
		Type:    notify.EventCircuitStageChanged,
		Subject: realID,
		Message: fmt.Sprintf("circuit %s moved to %s", realID, stage),
		Data:    map[string]any{"stage": stage, "requested_id": id},
	})
	return realID, nil
}

func (t *Tracker) UpdateProgress(ctx context.Context, id string, progress int) (string, error) {
	if progress < 0 || progress > 100 {
		return "", ErrInvalidProgress
	}
	realID, err := t.ensureReal(ctx, id)
	if err != nil {
		return "", err
	}
	if err := t.Store.UpdateProgress(ctx, realID, progress); err != nil {
		return "", fmt.Errorf("update progress %s: %w", realID, err)
	}
	t.Log.Info("circuit progress updated", zap.String("id", realID), zap.Int("progress", progress))
	return realID, nil
}

func (t *Tracker) AddMilestone(ctx context.Context, id string, in MilestoneInput) (Milestone, error) {
	if strings.TrimSpace(in.Type) == "" {
		return Milestone{}, ErrInvalidMilestone
	}
	realID, err := t.ensureReal(ctx, id)
	if err != nil {
		return Milestone{}, err
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	m := Milestone{
		CircuitTrackingID: realID,
		Type:              strings.TrimSpace(in.Type),
		Date:              date,
		Notes:             in.Notes,
	}
	mid, err := t.Store.InsertMilestone(ctx, m)
	if err != nil {
		return Milestone{}, fmt.Errorf("insert milestone: %w", err)
	}
	m.ID = mid
	t.notify(ctx, notify.Event{
		Type:    notify.EventCircuitMilestone,
		Subject: realID,
		Message: fmt.Sprintf("milestone %s added to circuit %s", m.Type, realID),
		Data:    map[string]any{"milestone_id": mid},
	})
	return m, nil
}

// Milestones lists a row's milestones. A virtual row has none yet.
func (t *Tracker) Milestones(ctx context.Context, id string) ([]Milestone, error) {
	if IsVirtual(id) {
		return []Milestone{}, nil
	}
	ms, err := t.Store.ListMilestones(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list milestones %s: %w", id, err)
	}
	return ms, nil
}

// ensureReal returns id unchanged for real rows. A virtual id is promoted by
// inserting a real row with the virtual row's derived fields; its id is
// returned for the caller's mutation.
func (t *Tracker) ensureReal(ctx context.Context, id string) (string, error) {
	if !IsVirtual(id) {
		return id, nil
	}
	board, err := t.Board(ctx)
	if err != nil {
		return "", err
	}
	var virtual *Tracking
	for i := range board {
		if board[i].ID == id {
			virtual = &board[i]
			break
		}
	}
	if virtual == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	row := *virtual
	row.ID = ""
	newID, err := t.Store.InsertTracking(ctx, row)
	if err != nil {
		return "", fmt.Errorf("promote %s: %w", id, err)
	}
	t.Log.Info("circuit promoted", zap.String("virtual_id", id), zap.String("id", newID))
	return newID, nil
}

func (t *Tracker) notify(ctx context.Context, ev notify.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := t.Notifier.Notify(ctx, ev); err != nil {
		t.Log.Warn("notify failed", zap.String("event", ev.Type), zap.Error(err))
	}
}
