package quote

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("quote not found")
	ErrInvalidDraft = errors.New("invalid quote draft")
)

type ChargeType string

const (
	ChargeMRC ChargeType = "MRC"
	ChargeNRC ChargeType = "NRC"
)

const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

type Quote struct {
	ID                 string
	UserID             string
	Number             string
	ClientID           string
	ClientInfoID       string
	AgentID            string
	Status             string
	Amount             decimal.Decimal
	CommissionOverride *decimal.Decimal
	Commission         decimal.Decimal
	CreatedAt          time.Time
	Customer           Customer
	Items              []Item
	Comment            string
}

type Customer struct {
	Name    string
	Contact string
	Email   string
}

type Item struct {
	ID          string
	ItemID      string
	Name        string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	ChargeType  ChargeType
	AddressID   string
}

// Totals splits the quote amount into recurring and one-time parts.
type Totals struct {
	MRC    decimal.Decimal
	NRC    decimal.Decimal
	Amount decimal.Decimal
}

func (q Quote) Totals() Totals {
	return ComputeTotals(q.Items)
}

func ComputeTotals(items []Item) Totals {
	t := Totals{MRC: decimal.Zero, NRC: decimal.Zero}
	for _, it := range items {
		switch it.ChargeType {
		case ChargeNRC:
			t.NRC = t.NRC.Add(it.TotalPrice)
		default:
			t.MRC = t.MRC.Add(it.TotalPrice)
		}
	}
	t.Amount = t.MRC.Add(t.NRC)
	return t
}
