package quote

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// FirstQuoteNumber is the floor for per-user quote numbers.
const FirstQuoteNumber = 3500

type NumberStore interface {
	// LatestQuoteNumber returns the user's most recently created non-null quote
	// number; found is false when the user has none.
	LatestQuoteNumber(ctx context.Context, userID string) (number string, found bool, err error)
	// QuoteNumbersWithPrefix lists the user's quote numbers starting with prefix.
	QuoteNumbersWithPrefix(ctx context.Context, userID, prefix string) ([]string, error)
}

type Allocator struct {
	Store NumberStore
	Log   *zap.Logger
}

func NewAllocator(store NumberStore, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{Store: store, Log: log}
}

// NextQuoteNumber reads the latest number and returns the next one. Nothing is
// reserved, so two concurrent callers for the same user can get the same value.
func (a *Allocator) NextQuoteNumber(ctx context.Context, userID string) (string, error) {
	latest, found, err := a.Store.LatestQuoteNumber(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("latest quote number: %w", err)
	}
	next := FirstQuoteNumber
	if found {
		if n, ok := leadingInt(latest); ok && n+1 > next {
			next = n + 1
		}
	}
	return strconv.Itoa(next), nil
}

// NextVersion returns "{base}.{max+1}" over the user's existing revisions of
// base, or "{base}.1" when there are none or they cannot be read.
func (a *Allocator) NextVersion(ctx context.Context, base, userID string) string {
	base = BaseNumber(base)
	prefix := base + "."
	numbers, err := a.Store.QuoteNumbersWithPrefix(ctx, userID, prefix)
	if err != nil {
		a.Log.Warn("quote version lookup failed",
			zap.String("base", base), zap.String("user_id", userID), zap.Error(err))
		return prefix + "1"
	}
	max := 0
	for _, n := range numbers {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		v, err := strconv.Atoi(n[len(prefix):])
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	return prefix + strconv.Itoa(max+1)
}

// BaseNumber strips a version suffix: "3500.2" -> "3500".
func BaseNumber(number string) string {
	number = strings.TrimSpace(number)
	if i := strings.IndexByte(number, '.'); i >= 0 {
		return number[:i]
	}
	return number
}

// leadingInt parses the integer prefix of s ("3500.2" -> 3500). ok is false
// when s does not start with a digit (after an optional sign).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
