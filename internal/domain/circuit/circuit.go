// Package circuit builds the circuit tracking board: real tracking rows plus
// virtual rows for accepted-order line items nobody has started tracking yet.
package circuit

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	VirtualPrefix = "virtual-"

	StageReadyToOrder = "Ready to Order"
	StageOrdered      = "Ordered"
	StageCompleted    = "Completed"
)

var (
	ErrNotFound         = errors.New("circuit tracking row not found")
	ErrInvalidProgress  = errors.New("progress must be between 0 and 100")
	ErrInvalidStage     = errors.New("stage is required")
	ErrInvalidMilestone = errors.New("milestone type is required")
)

type Tracking struct {
	ID              string
	OrderID         string
	QuoteItemID     string
	CircuitType     string
	ItemName        string
	ItemDescription string
	Stage           string
	Progress        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t Tracking) Virtual() bool { return IsVirtual(t.ID) }

func IsVirtual(id string) bool { return strings.HasPrefix(id, VirtualPrefix) }

// NormalizeStage is the form a stage is stored in.
func NormalizeStage(stage string) string { return strings.TrimSpace(stage) }

// AcceptedOrder is an order joined with its quote's line items.
type AcceptedOrder struct {
	ID      string
	QuoteID string
	Items   []OrderItem
}

type OrderItem struct {
	QuoteItemID     string
	ItemName        string
	ItemDescription string
	CategoryName    string
}

type Milestone struct {
	ID                string
	CircuitTrackingID string
	Type              string
	Date              time.Time
	Notes             string
	CreatedAt         time.Time
}

type MilestoneInput struct {
	Type  string
	Date  time.Time
	Notes string
}

// Materialize returns every existing row followed by a virtual row for each
// untracked quote item that passes trackable.
func Materialize(existing []Tracking, orders []AcceptedOrder) []Tracking {
	out := make([]Tracking, 0, len(existing))
	tracked := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		out = append(out, t)
		if t.QuoteItemID != "" {
			tracked[t.QuoteItemID] = struct{}{}
		}
	}

	for _, o := range orders {
		for _, it := range o.Items {
			if it.QuoteItemID == "" {
				continue
			}
			if _, ok := tracked[it.QuoteItemID]; ok {
				continue
			}
			if !trackable(it) {
				continue
			}
			tracked[it.QuoteItemID] = struct{}{}
			out = append(out, virtualRow(o.ID, it))
		}
	}
	return out
}

// trackable filters out placeholder line items. The thresholds are product
// heuristics and are kept exactly as the board has always applied them.
func trackable(it OrderItem) bool {
	name := it.ItemName
	if name == "" {
		return false
	}
	if strings.EqualFold(name, "broadband") {
		return false
	}
	if name == it.CategoryName {
		return false
	}
	if utf8.RuneCountInString(name) <= 3 {
		return false
	}
	return !strings.Contains(name, "general")
}

func virtualRow(orderID string, it OrderItem) Tracking {
	return Tracking{
		ID:              VirtualPrefix + it.QuoteItemID,
		OrderID:         orderID,
		QuoteItemID:     it.QuoteItemID,
		CircuitType:     it.CategoryName,
		ItemName:        it.ItemName,
		ItemDescription: it.ItemDescription,
		Stage:           StageReadyToOrder,
		Progress:        0,
	}
}
