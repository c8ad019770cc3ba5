package quote

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNumbers struct {
	latest    string
	found     bool
	latestErr error
	numbers   []string
	listErr   error
}

func (s stubNumbers) LatestQuoteNumber(context.Context, string) (string, bool, error) {
	return s.latest, s.found, s.latestErr
}

func (s stubNumbers) QuoteNumbersWithPrefix(_ context.Context, _ string, prefix string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []string
	for _, n := range s.numbers {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestNextQuoteNumber(t *testing.T) {
	tests := []struct {
		name  string
		store stubNumbers
		want  string
	}{
		{name: "no prior quote", store: stubNumbers{}, want: "3500"},
		{name: "after floor", store: stubNumbers{latest: "3500", found: true}, want: "3501"},
		{name: "ordinary increment", store: stubNumbers{latest: "4120", found: true}, want: "4121"},
		{name: "latest is a revision", store: stubNumbers{latest: "3507.3", found: true}, want: "3508"},
		{name: "small corrupted value", store: stubNumbers{latest: "12", found: true}, want: "3500"},
		{name: "negative value", store: stubNumbers{latest: "-40", found: true}, want: "3500"},
		{name: "non numeric", store: stubNumbers{latest: "Q-abc", found: true}, want: "3500"},
		{name: "empty string", store: stubNumbers{latest: "", found: true}, want: "3500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAllocator(tt.store, nil).NextQuoteNumber(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextQuoteNumber_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("timeout")
	_, err := NewAllocator(stubNumbers{latestErr: boom}, nil).NextQuoteNumber(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
}

func TestNextVersion(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		numbers []string
		listErr error
		want    string
	}{
		{name: "no revisions", base: "3500", want: "3500.1"},
		{name: "two revisions", base: "3500", numbers: []string{"3500.1", "3500.2"}, want: "3500.3"},
		{name: "max not count", base: "3500", numbers: []string{"3500.7", "3500.2"}, want: "3500.8"},
		{name: "non numeric suffix ignored", base: "3500", numbers: []string{"3500.x", "3500.2b", "3500.1"}, want: "3500.2"},
		{name: "other bases ignored", base: "3500", numbers: []string{"35001.4", "3501.9"}, want: "3500.1"},
		{name: "base given as revision", base: "3500.2", numbers: []string{"3500.1", "3500.2"}, want: "3500.3"},
		{name: "fetch error", base: "3500", listErr: errors.New("down"), want: "3500.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAllocator(stubNumbers{numbers: tt.numbers, listErr: tt.listErr}, nil)
			assert.Equal(t, tt.want, a.NextVersion(context.Background(), tt.base, "u1"))
		})
	}
}

func TestBaseNumber(t *testing.T) {
	assert.Equal(t, "3500", BaseNumber("3500"))
	assert.Equal(t, "3500", BaseNumber("3500.12"))
	assert.Equal(t, "3500", BaseNumber(" 3500.1 "))
}
