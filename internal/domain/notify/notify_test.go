package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_PostsEvent(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, srv.Client()).Notify(context.Background(), Event{
		Type:    EventQuoteCreated,
		Subject: "3501",
		UserID:  "u1",
		Message: "quote 3501 created",
	})
	require.NoError(t, err)
	assert.Equal(t, EventQuoteCreated, got.Type)
	assert.Equal(t, "3501", got.Subject)
	assert.False(t, got.At.IsZero())
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, srv.Client()).Notify(context.Background(), Event{Type: EventQuoteCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestMulti_DeliversToAllAndReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &recorder{err: boom}
	b := &recorder{}

	err := Multi{a, nil, b}.Notify(context.Background(), Event{Type: EventCircuitStageChanged})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
