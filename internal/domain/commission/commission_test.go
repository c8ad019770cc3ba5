package commission

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClients struct {
	overrides map[string]*decimal.Decimal
	err       error
	calls     int
}

func (s *stubClients) ClientCommissionOverride(_ context.Context, id string) (*decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.overrides[id], nil
}

type failingAgents struct{ err error }

func (f failingAgents) AgentByID(context.Context, string) (*Agent, error) { return nil, f.err }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestResolve_Precedence(t *testing.T) {
	agents := AgentList{{ID: "a1", Name: "Dana", CommissionRate: dec("15")}}
	clients := &stubClients{overrides: map[string]*decimal.Decimal{
		"c-null": nil,
		"c-10":   ptr("10"),
	}}
	r := NewResolver(agents, clients)

	tests := []struct {
		name     string
		clientID string
		tx       *decimal.Decimal
		want     string
		source   Source
	}{
		{name: "agent default", clientID: "c-null", want: "150.00", source: SourceAgent},
		{name: "no client info", want: "150.00", source: SourceAgent},
		{name: "client override wins over agent", clientID: "c-10", want: "100.00", source: SourceClient},
		{name: "transaction override wins over both", clientID: "c-10", tx: ptr("5"), want: "50.00", source: SourceTransaction},
		{name: "zero transaction override is still an override", clientID: "c-10", tx: ptr("0"), want: "0.00", source: SourceTransaction},
		{name: "unknown client row falls through", clientID: "c-missing", want: "150.00", source: SourceAgent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.ResolveDetail(context.Background(), dec("1000"), "a1", tt.clientID, tt.tx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Display(res.Amount))
			assert.Equal(t, tt.source, res.Source)
		})
	}
}

func TestResolve_TransactionOverrideSkipsLookups(t *testing.T) {
	clients := &stubClients{err: errors.New("should not be called")}
	r := NewResolver(failingAgents{err: errors.New("should not be called")}, clients)

	got, err := r.Resolve(context.Background(), dec("200"), "a1", "c1", ptr("7.5"))
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("15")), "got %s", got)
	assert.Zero(t, clients.calls)
}

func TestResolve_AgentNotFoundIsZero(t *testing.T) {
	r := NewResolver(AgentList{}, &stubClients{})

	got, err := r.Resolve(context.Background(), dec("1000"), "ghost", "", nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestResolve_LookupErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("client lookup", func(t *testing.T) {
		r := NewResolver(AgentList{{ID: "a1", CommissionRate: dec("15")}}, &stubClients{err: boom})
		_, err := r.Resolve(context.Background(), dec("1000"), "a1", "c1", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("agent lookup", func(t *testing.T) {
		r := NewResolver(failingAgents{err: boom}, &stubClients{})
		_, err := r.Resolve(context.Background(), dec("1000"), "a1", "", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}

func TestResolve_NeverBlends(t *testing.T) {
	agents := AgentList{{ID: "a1", CommissionRate: dec("12")}}
	clients := &stubClients{overrides: map[string]*decimal.Decimal{"c1": ptr("8")}}
	r := NewResolver(agents, clients)

	for _, amount := range []string{"0", "1", "99.99", "12345.67"} {
		a := dec(amount)
		got, err := r.Resolve(context.Background(), a, "a1", "c1", nil)
		require.NoError(t, err)
		want := a.Mul(dec("8")).Div(dec("100"))
		assert.True(t, got.Equal(want), "amount %s: got %s want %s", amount, got, want)
	}
}
