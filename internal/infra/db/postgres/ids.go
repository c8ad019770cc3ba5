package postgres

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// parseID reports false for anything that is not a uuid; callers treat that as
// "no such row" rather than sending it to Postgres.
func parseID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// optID maps an empty or malformed id to NULL.
func optID(s string) *uuid.UUID {
	id, ok := parseID(s)
	if !ok {
		return nil
	}
	return &id
}

func optDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseOptDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
