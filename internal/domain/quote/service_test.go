package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reseller-ops/go_backend/internal/domain/commission"
	"reseller-ops/go_backend/internal/domain/notify"
)

type memStore struct {
	quotes    []*Quote
	orders    []string
	insertErr error
	acceptErr error
	seq       int
}

func (m *memStore) LatestQuoteNumber(_ context.Context, userID string) (string, bool, error) {
	for i := len(m.quotes) - 1; i >= 0; i-- {
		if m.quotes[i].UserID == userID && m.quotes[i].Number != "" {
			return m.quotes[i].Number, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) QuoteNumbersWithPrefix(_ context.Context, userID, prefix string) ([]string, error) {
	var out []string
	for _, q := range m.quotes {
		if q.UserID == userID && strings.HasPrefix(q.Number, prefix) {
			out = append(out, q.Number)
		}
	}
	return out, nil
}

func (m *memStore) InsertQuote(_ context.Context, q *Quote) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.seq++
	q.ID = fmt.Sprintf("q%d", m.seq)
	q.CreatedAt = time.Unix(int64(m.seq), 0)
	for i := range q.Items {
		q.Items[i].ID = fmt.Sprintf("%s-i%d", q.ID, i+1)
	}
	cp := *q
	cp.Items = append([]Item(nil), q.Items...)
	m.quotes = append(m.quotes, &cp)
	return nil
}

func (m *memStore) GetQuote(_ context.Context, id string) (*Quote, error) {
	for _, q := range m.quotes {
		if q.ID == id {
			cp := *q
			cp.Items = append([]Item(nil), q.Items...)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) UpdateQuoteStatus(_ context.Context, id, status string) error {
	for _, q := range m.quotes {
		if q.ID == id {
			q.Status = status
			return nil
		}
	}
	return ErrNotFound
}

// AcceptQuote fails as a whole when acceptErr is set, like the transaction
// it stands in for. acceptErr is consumed by the first call.
func (m *memStore) AcceptQuote(_ context.Context, quoteID string) (string, error) {
	if err := m.acceptErr; err != nil {
		m.acceptErr = nil
		return "", err
	}
	var q *Quote
	for _, c := range m.quotes {
		if c.ID == quoteID {
			q = c
		}
	}
	if q == nil {
		return "", ErrNotFound
	}
	q.Status = StatusAccepted
	for _, id := range m.orders {
		if id == quoteID {
			return "o-" + quoteID, nil
		}
	}
	m.orders = append(m.orders, quoteID)
	return "o-" + quoteID, nil
}

type captured struct{ events []notify.Event }

func (c *captured) Notify(_ context.Context, ev notify.Event) error {
	c.events = append(c.events, ev)
	return nil
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, decimal.Decimal, string, string, *decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("client_info lookup failed")
}

func newTestService(store *memStore, events *captured) *Service {
	agents := commission.AgentList{{ID: "a1", CommissionRate: decimal.NewFromInt(15)}}
	return NewService(store, commission.NewResolver(agents, nil), events, nil)
}

func fiberDraft() Draft {
	return Draft{
		ClientID: "c1",
		AgentID:  "a1",
		Items: []DraftItem{
			{Name: "Fiber 1G", Quantity: 2, UnitPrice: decimal.RequireFromString("400"), ChargeType: "mrc"},
			{Name: "Install", Quantity: 1, UnitPrice: decimal.RequireFromString("200"), ChargeType: ChargeNRC},
		},
	}
}

func TestCreateQuote(t *testing.T) {
	store := &memStore{}
	events := &captured{}
	svc := newTestService(store, events)

	q, err := svc.CreateQuote(context.Background(), "u1", fiberDraft())
	require.NoError(t, err)

	assert.Equal(t, "3500", q.Number)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, "1000.00", q.Amount.StringFixed(2))
	assert.Equal(t, "150.00", q.Commission.StringFixed(2))
	require.Len(t, q.Items, 2)
	assert.Equal(t, ChargeMRC, q.Items[0].ChargeType)
	assert.Equal(t, "800", q.Items[0].TotalPrice.String())

	totals := q.Totals()
	assert.Equal(t, "800", totals.MRC.String())
	assert.Equal(t, "200", totals.NRC.String())
	assert.True(t, totals.MRC.Add(totals.NRC).Equal(q.Amount))

	require.Len(t, events.events, 1)
	assert.Equal(t, notify.EventQuoteCreated, events.events[0].Type)

	second, err := svc.CreateQuote(context.Background(), "u1", fiberDraft())
	require.NoError(t, err)
	assert.Equal(t, "3501", second.Number)

	other, err := svc.CreateQuote(context.Background(), "u2", fiberDraft())
	require.NoError(t, err)
	assert.Equal(t, "3500", other.Number, "numbering is per user")
}

func TestCreateQuote_TransactionOverride(t *testing.T) {
	d := fiberDraft()
	five := decimal.NewFromInt(5)
	d.CommissionOverride = &five

	q, err := newTestService(&memStore{}, &captured{}).CreateQuote(context.Background(), "u1", d)
	require.NoError(t, err)
	assert.Equal(t, "50.00", q.Commission.StringFixed(2))
}

func TestCreateQuote_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []DraftItem
	}{
		{name: "no items"},
		{name: "zero quantity", items: []DraftItem{{Name: "x", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}}},
		{name: "negative price", items: []DraftItem{{Name: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}}},
		{name: "bad charge type", items: []DraftItem{{Name: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(1), ChargeType: "ARC"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			_, err := newTestService(store, &captured{}).CreateQuote(context.Background(), "u1", Draft{Items: tt.items})
			require.Error(t, err)
			assert.True(t, IsInvalid(err))
			assert.Empty(t, store.quotes)
		})
	}
}

func TestCreateQuote_CommissionFailureAbortsWrite(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, failingResolver{}, nil, nil)

	_, err := svc.CreateQuote(context.Background(), "u1", fiberDraft())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve commission")
	assert.Empty(t, store.quotes)
}

func TestReviseQuote(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, &captured{})
	ctx := context.Background()

	orig, err := svc.CreateQuote(ctx, "u1", fiberDraft())
	require.NoError(t, err)

	r1, err := svc.ReviseQuote(ctx, "u1", orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "3500.1", r1.Number)
	assert.NotEqual(t, orig.ID, r1.ID)
	assert.Equal(t, orig.Amount.String(), r1.Amount.String())
	require.Len(t, r1.Items, 2)
	assert.NotEqual(t, orig.Items[0].ID, r1.Items[0].ID)

	r2, err := svc.ReviseQuote(ctx, "u1", r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "3500.2", r2.Number)

	next, err := svc.NextQuoteNumber(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "3501", next)

	_, err = svc.ReviseQuote(ctx, "someone-else", orig.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_AcceptOpensOrder(t *testing.T) {
	store := &memStore{}
	events := &captured{}
	svc := newTestService(store, events)
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, "u1", fiberDraft())
	require.NoError(t, err)

	got, err := svc.UpdateStatus(ctx, "u1", q.ID, "Accepted")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, []string{q.ID}, store.orders)

	_, err = svc.UpdateStatus(ctx, "u1", q.ID, StatusAccepted)
	require.NoError(t, err)
	assert.Len(t, store.orders, 1, "re-accepting does not open a second order")

	_, err = svc.UpdateStatus(ctx, "u1", q.ID, "archived")
	assert.True(t, IsInvalid(err))

	last := events.events[len(events.events)-1]
	assert.Equal(t, notify.EventQuoteStatusChanged, last.Type)
}

func TestUpdateStatus_FailedAcceptCanBeRetried(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, &captured{})
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, "u1", fiberDraft())
	require.NoError(t, err)

	store.acceptErr = errors.New("orders insert failed")
	_, err = svc.UpdateStatus(ctx, "u1", q.ID, StatusAccepted)
	require.Error(t, err)

	stored, err := svc.GetQuote(ctx, "u1", q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status, "status is not half-applied")
	assert.Empty(t, store.orders)

	got, err := svc.UpdateStatus(ctx, "u1", q.ID, StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, []string{q.ID}, store.orders)
}

func TestUpdateStatus_ReacceptKeepsOneOrder(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store, &captured{})
	ctx := context.Background()

	q, err := svc.CreateQuote(ctx, "u1", fiberDraft())
	require.NoError(t, err)

	for _, status := range []string{StatusAccepted, StatusSent, StatusAccepted} {
		_, err := svc.UpdateStatus(ctx, "u1", q.ID, status)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{q.ID}, store.orders)
}

func TestCreateQuote_RejectsSubCentPrices(t *testing.T) {
	store := &memStore{}
	d := Draft{Items: []DraftItem{{Name: "Fiber 1G", Quantity: 3, UnitPrice: decimal.RequireFromString("19.995")}}}

	_, err := newTestService(store, &captured{}).CreateQuote(context.Background(), "u1", d)
	require.Error(t, err)
	assert.True(t, IsInvalid(err))
	assert.Empty(t, store.quotes)

	d.Items[0].UnitPrice = decimal.RequireFromString("19.990")
	q, err := newTestService(store, &captured{}).CreateQuote(context.Background(), "u1", d)
	require.NoError(t, err)
	assert.Equal(t, "59.97", q.Amount.StringFixed(2))
}

func TestCreateQuote_CommissionStoredInCents(t *testing.T) {
	d := Draft{Items: []DraftItem{{Name: "Fiber 1G", Quantity: 1, UnitPrice: decimal.RequireFromString("33.33")}}}
	rate := decimal.RequireFromString("12.5")
	d.CommissionOverride = &rate

	q, err := newTestService(&memStore{}, &captured{}).CreateQuote(context.Background(), "u1", d)
	require.NoError(t, err)
	// 33.33 * 12.5% = 4.166250
	assert.Equal(t, "4.17", q.Commission.String())

	tooPrecise := decimal.RequireFromString("12.3456")
	d.CommissionOverride = &tooPrecise
	_, err = newTestService(&memStore{}, &captured{}).CreateQuote(context.Background(), "u1", d)
	assert.True(t, IsInvalid(err))
}
