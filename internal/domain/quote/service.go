package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/domain/notify"
)

type Store interface {
	NumberStore
	// InsertQuote persists q and its items, filling in generated ids and CreatedAt.
	InsertQuote(ctx context.Context, q *Quote) error
	// GetQuote loads a quote with its items, or ErrNotFound.
	GetQuote(ctx context.Context, id string) (*Quote, error)
	UpdateQuoteStatus(ctx context.Context, id, status string) error
	// AcceptQuote sets status accepted and opens the quote's order atomically.
	// It is idempotent: an existing order is returned instead of a second one.
	AcceptQuote(ctx context.Context, quoteID string) (orderID string, err error)
}

type CommissionResolver interface {
	Resolve(ctx context.Context, amount decimal.Decimal, agentID, clientInfoID string, txOverride *decimal.Decimal) (decimal.Decimal, error)
}

// Draft is the quote builder form.
type Draft struct {
	ClientID           string
	ClientInfoID       string
	AgentID            string
	CommissionOverride *decimal.Decimal
	Customer           Customer
	Comment            string
	Items              []DraftItem
}

// Money is stored in cents and rates in thousandths of a percent.
const (
	moneyPlaces = 2
	ratePlaces  = 3
)

type DraftItem struct {
	ItemID      string
	Name        string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	ChargeType  ChargeType
	AddressID   string
}

type Service struct {
	Store      Store
	Numbers    *Allocator
	Commission CommissionResolver
	Notifier   notify.Notifier
	Log        *zap.Logger
}

func NewService(store Store, commission CommissionResolver, notifier notify.Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		Store:      store,
		Numbers:    NewAllocator(store, log),
		Commission: commission,
		Notifier:   notifier,
		Log:        log,
	}
}

func (s *Service) NextQuoteNumber(ctx context.Context, userID string) (string, error) {
	return s.Numbers.NextQuoteNumber(ctx, userID)
}

func (s *Service) NextVersion(ctx context.Context, base, userID string) string {
	return s.Numbers.NextVersion(ctx, base, userID)
}

func (s *Service) CreateQuote(ctx context.Context, userID string, d Draft) (*Quote, error) {
	items, err := buildItems(d.Items)
	if err != nil {
		return nil, err
	}
	if o := d.CommissionOverride; o != nil && !o.Equal(o.Round(ratePlaces)) {
		return nil, fmt.Errorf("%w: commission override has more than %d decimal places", ErrInvalidDraft, ratePlaces)
	}
	q := &Quote{
		UserID:             userID,
		ClientID:           strings.TrimSpace(d.ClientID),
		ClientInfoID:       strings.TrimSpace(d.ClientInfoID),
		AgentID:            strings.TrimSpace(d.AgentID),
		Status:             StatusDraft,
		CommissionOverride: d.CommissionOverride,
		Customer:           d.Customer,
		Comment:            d.Comment,
		Items:              items,
	}
	q.Amount = q.Totals().Amount

	number, err := s.Numbers.NextQuoteNumber(ctx, userID)
	if err != nil {
		return nil, err
	}
	q.Number = number

	if err := s.resolveCommission(ctx, q); err != nil {
		return nil, err
	}
	if err := s.Store.InsertQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("insert quote: %w", err)
	}

	s.Log.Info("quote created",
		zap.String("quote_id", q.ID), zap.String("number", q.Number),
		zap.String("user_id", userID), zap.String("amount", q.Amount.StringFixed(2)))
	s.notify(ctx, notify.Event{
		Type:    notify.EventQuoteCreated,
		Subject: q.Number,
		UserID:  userID,
		Message: fmt.Sprintf("quote %s created", q.Number),
		Data:    map[string]any{"quote_id": q.ID, "amount": q.Amount.StringFixed(2)},
	})
	return q, nil
}

// ReviseQuote copies an existing quote as the next version of its base number.
func (s *Service) ReviseQuote(ctx context.Context, userID, quoteID string) (*Quote, error) {
	orig, err := s.getOwned(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}

	rev := *orig
	rev.ID = ""
	rev.CreatedAt = time.Time{}
	rev.Status = StatusDraft
	rev.Items = make([]Item, len(orig.Items))
	for i, it := range orig.Items {
		it.ID = ""
		rev.Items[i] = it
	}
	rev.Amount = rev.Totals().Amount
	rev.Number = s.Numbers.NextVersion(ctx, BaseNumber(orig.Number), userID)

	if err := s.resolveCommission(ctx, &rev); err != nil {
		return nil, err
	}
	if err := s.Store.InsertQuote(ctx, &rev); err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}

	s.Log.Info("quote revised",
		zap.String("quote_id", rev.ID), zap.String("number", rev.Number), zap.String("from", orig.Number))
	s.notify(ctx, notify.Event{
		Type:    notify.EventQuoteRevised,
		Subject: rev.Number,
		UserID:  userID,
		Message: fmt.Sprintf("quote %s revised as %s", orig.Number, rev.Number),
		Data:    map[string]any{"quote_id": rev.ID, "from_quote_id": orig.ID},
	})
	return &rev, nil
}

func (s *Service) GetQuote(ctx context.Context, userID, quoteID string) (*Quote, error) {
	return s.getOwned(ctx, userID, quoteID)
}

// UpdateStatus sets the quote status; accepting a quote also opens its order.
func (s *Service) UpdateStatus(ctx context.Context, userID, quoteID, status string) (*Quote, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidDraft, status)
	}

	q, err := s.getOwned(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	prev := q.Status
	data := map[string]any{"quote_id": q.ID, "from": prev, "to": status}
	if status == StatusAccepted {
		orderID, err := s.Store.AcceptQuote(ctx, q.ID)
		if err != nil {
			return nil, fmt.Errorf("accept quote: %w", err)
		}
		data["order_id"] = orderID
	} else if err := s.Store.UpdateQuoteStatus(ctx, q.ID, status); err != nil {
		return nil, fmt.Errorf("update quote status: %w", err)
	}
	q.Status = status

	s.notify(ctx, notify.Event{
		Type:    notify.EventQuoteStatusChanged,
		Subject: q.Number,
		UserID:  userID,
		Message: fmt.Sprintf("quote %s is now %s", q.Number, status),
		Data:    data,
	})
	return q, nil
}

func (s *Service) getOwned(ctx context.Context, userID, quoteID string) (*Quote, error) {
	q, err := s.Store.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, ErrNotFound
	}
	return q, nil
}

func (s *Service) resolveCommission(ctx context.Context, q *Quote) error {
	if s.Commission == nil {
		q.Commission = decimal.Zero
		return nil
	}
	c, err := s.Commission.Resolve(ctx, q.Amount, q.AgentID, q.ClientInfoID, q.CommissionOverride)
	if err != nil {
		return fmt.Errorf("resolve commission: %w", err)
	}
	q.Commission = c.Round(moneyPlaces)
	return nil
}

func (s *Service) notify(ctx context.Context, ev notify.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		s.Log.Warn("notify failed", zap.String("event", ev.Type), zap.Error(err))
	}
}

func buildItems(in []DraftItem) ([]Item, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrInvalidDraft)
	}
	out := make([]Item, 0, len(in))
	for i, it := range in {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d: quantity must be > 0", ErrInvalidDraft, i+1)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d: unit price must be >= 0", ErrInvalidDraft, i+1)
		}
		if !it.UnitPrice.Equal(it.UnitPrice.Round(moneyPlaces)) {
			return nil, fmt.Errorf("%w: item %d: unit price has more than %d decimal places", ErrInvalidDraft, i+1, moneyPlaces)
		}
		ct := ChargeType(strings.ToUpper(strings.TrimSpace(string(it.ChargeType))))
		switch ct {
		case "":
			ct = ChargeMRC
		case ChargeMRC, ChargeNRC:
		default:
			return nil, fmt.Errorf("%w: item %d: charge type must be MRC or NRC", ErrInvalidDraft, i+1)
		}
		out = append(out, Item{
			ItemID:      strings.TrimSpace(it.ItemID),
			Name:        strings.TrimSpace(it.Name),
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
			ChargeType:  ct,
			AddressID:   strings.TrimSpace(it.AddressID),
		})
	}
	return out, nil
}

// IsInvalid reports whether err came from draft or status validation.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidDraft) }
