package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"reseller-ops/go_backend/internal/app/http/httpx"
	"reseller-ops/go_backend/internal/domain/quote"
	"reseller-ops/go_backend/internal/domain/quote/pdf"
)

type customerJSON struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

type createQuoteRequest struct {
	ClientID           string           `json:"client_id"`
	ClientInfoID       string           `json:"client_info_id"`
	AgentID            string           `json:"agent_id"`
	CommissionOverride *decimal.Decimal `json:"commission_override"`
	Customer           customerJSON     `json:"customer"`
	Comment            string           `json:"comment"`
	Items              []struct {
		ItemID      string          `json:"item_id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Quantity    int             `json:"quantity"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
		ChargeType  string          `json:"charge_type"`
		AddressID   string          `json:"address_id"`
	} `json:"items"`
}

type quoteItemJSON struct {
	ID          string `json:"id"`
	ItemID      string `json:"item_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
	ChargeType  string `json:"charge_type"`
	AddressID   string `json:"address_id,omitempty"`
}

type quoteJSON struct {
	ID                 string          `json:"id"`
	Number             string          `json:"quote_number"`
	Status             string          `json:"status"`
	ClientID           string          `json:"client_id,omitempty"`
	ClientInfoID       string          `json:"client_info_id,omitempty"`
	AgentID            string          `json:"agent_id,omitempty"`
	Amount             string          `json:"amount"`
	MRCTotal           string          `json:"mrc_total"`
	NRCTotal           string          `json:"nrc_total"`
	Commission         string          `json:"commission"`
	CommissionOverride *string         `json:"commission_override,omitempty"`
	Customer           customerJSON    `json:"customer"`
	Comment            string          `json:"comment,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	Items              []quoteItemJSON `json:"items"`
}

func toQuoteJSON(q *quote.Quote) quoteJSON {
	t := q.Totals()
	out := quoteJSON{
		ID:           q.ID,
		Number:       q.Number,
		Status:       q.Status,
		ClientID:     q.ClientID,
		ClientInfoID: q.ClientInfoID,
		AgentID:      q.AgentID,
		Amount:       q.Amount.StringFixed(2),
		MRCTotal:     t.MRC.StringFixed(2),
		NRCTotal:     t.NRC.StringFixed(2),
		Commission:   q.Commission.StringFixed(2),
		Customer:     customerJSON(q.Customer),
		Comment:      q.Comment,
		CreatedAt:    q.CreatedAt,
		Items:        make([]quoteItemJSON, 0, len(q.Items)),
	}
	if q.CommissionOverride != nil {
		s := q.CommissionOverride.String()
		out.CommissionOverride = &s
	}
	for _, it := range q.Items {
		out.Items = append(out.Items, quoteItemJSON{
			ID:          it.ID,
			ItemID:      it.ItemID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			TotalPrice:  it.TotalPrice.StringFixed(2),
			ChargeType:  string(it.ChargeType),
			AddressID:   it.AddressID,
		})
	}
	return out
}

func (h *Handlers) NextQuoteNumber(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	n, err := h.Quotes.NextQuoteNumber(r.Context(), uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"quote_number": n})
}

func (h *Handlers) NextVersion(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	base := strings.TrimSpace(r.URL.Query().Get("base"))
	if base == "" {
		httpx.WriteError(w, http.StatusBadRequest, "base is required")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"quote_number": h.Quotes.NextVersion(r.Context(), base, uid)})
}

func (h *Handlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createQuoteRequest
	if err := httpx.ReadJSON(r, &req, maxBody); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := quote.Draft{
		ClientID:           req.ClientID,
		ClientInfoID:       req.ClientInfoID,
		AgentID:            req.AgentID,
		CommissionOverride: req.CommissionOverride,
		Customer:           quote.Customer(req.Customer),
		Comment:            req.Comment,
	}
	for _, it := range req.Items {
		d.Items = append(d.Items, quote.DraftItem{
			ItemID:      it.ItemID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ChargeType:  quote.ChargeType(it.ChargeType),
			AddressID:   it.AddressID,
		})
	}

	q, err := h.Quotes.CreateQuote(r.Context(), uid, d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toQuoteJSON(q))
}

func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	q, err := h.Quotes.GetQuote(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toQuoteJSON(q))
}

func (h *Handlers) ReviseQuote(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	q, err := h.Quotes.ReviseQuote(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toQuoteJSON(q))
}

func (h *Handlers) UpdateQuoteStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.ReadJSON(r, &req, maxBody); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := h.Quotes.UpdateStatus(r.Context(), uid, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toQuoteJSON(q))
}

func (h *Handlers) QuotePDF(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	b, q, err := h.PDF.RenderPDF(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, pdf.FileName(*q)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *Handlers) ArchiveQuotePDF(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	url, err := h.PDF.ArchivePDF(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
