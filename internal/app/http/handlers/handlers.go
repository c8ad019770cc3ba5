package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/app/http/httpx"
	"reseller-ops/go_backend/internal/app/http/middleware"
	"reseller-ops/go_backend/internal/domain/circuit"
	"reseller-ops/go_backend/internal/domain/commission"
	"reseller-ops/go_backend/internal/domain/quote"
	"reseller-ops/go_backend/internal/domain/quote/pdf"
)

type QuoteService interface {
	NextQuoteNumber(ctx context.Context, userID string) (string, error)
	NextVersion(ctx context.Context, base, userID string) string
	CreateQuote(ctx context.Context, userID string, d quote.Draft) (*quote.Quote, error)
	ReviseQuote(ctx context.Context, userID, quoteID string) (*quote.Quote, error)
	GetQuote(ctx context.Context, userID, quoteID string) (*quote.Quote, error)
	UpdateStatus(ctx context.Context, userID, quoteID, status string) (*quote.Quote, error)
}

type QuotePDF interface {
	RenderPDF(ctx context.Context, userID, quoteID string) ([]byte, *quote.Quote, error)
	ArchivePDF(ctx context.Context, userID, quoteID string) (string, error)
}

type CommissionResolver interface {
	ResolveDetail(ctx context.Context, amount decimal.Decimal, agentID, clientInfoID string, txOverride *decimal.Decimal) (commission.Result, error)
}

type AgentLister interface {
	ListAgents(ctx context.Context) (commission.AgentList, error)
}

type CircuitTracker interface {
	Board(ctx context.Context) ([]circuit.Tracking, error)
	UpdateStage(ctx context.Context, id, stage string) (string, error)
	UpdateProgress(ctx context.Context, id string, progress int) (string, error)
	AddMilestone(ctx context.Context, id string, in circuit.MilestoneInput) (circuit.Milestone, error)
	Milestones(ctx context.Context, id string) ([]circuit.Milestone, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Quotes     QuoteService
	PDF        QuotePDF
	Commission CommissionResolver
	Agents     AgentLister
	Circuits   CircuitTracker
	DB         Pinger
	Log        *zap.Logger
}

const maxBody = 1 << 20

// userID reads the id placed by the auth middleware.
func (h *Handlers) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
	}
	return uid, ok
}

// fail maps domain errors to 404/400; anything else is a store failure.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quote.ErrNotFound), errors.Is(err, circuit.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quote.ErrInvalidDraft),
		errors.Is(err, circuit.ErrInvalidProgress),
		errors.Is(err, circuit.ErrInvalidStage),
		errors.Is(err, circuit.ErrInvalidMilestone):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pdf.ErrArchiveDisabled):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.Log.Error("request failed",
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		httpx.WriteError(w, http.StatusBadGateway, "upstream store error")
	}
}
