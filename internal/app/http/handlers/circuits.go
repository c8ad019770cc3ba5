package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reseller-ops/go_backend/internal/app/http/httpx"
	"reseller-ops/go_backend/internal/domain/circuit"
)

type trackingJSON struct {
	ID              string    `json:"id"`
	Virtual         bool      `json:"virtual"`
	OrderID         string    `json:"order_id,omitempty"`
	QuoteItemID     string    `json:"quote_item_id,omitempty"`
	CircuitType     string    `json:"circuit_type"`
	ItemName        string    `json:"item_name"`
	ItemDescription string    `json:"item_description,omitempty"`
	Stage           string    `json:"stage"`
	Progress        int       `json:"progress"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

type milestoneJSON struct {
	ID                string    `json:"id"`
	CircuitTrackingID string    `json:"circuit_tracking_id"`
	Type              string    `json:"milestone_type"`
	Date              time.Time `json:"milestone_date"`
	Notes             string    `json:"notes,omitempty"`
}

func toMilestoneJSON(m circuit.Milestone) milestoneJSON {
	return milestoneJSON{
		ID:                m.ID,
		CircuitTrackingID: m.CircuitTrackingID,
		Type:              m.Type,
		Date:              m.Date,
		Notes:             m.Notes,
	}
}

func (h *Handlers) ListCircuits(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Circuits.Board(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]trackingJSON, 0, len(rows))
	for _, t := range rows {
		out = append(out, trackingJSON{
			ID:              t.ID,
			Virtual:         t.Virtual(),
			OrderID:         t.OrderID,
			QuoteItemID:     t.QuoteItemID,
			CircuitType:     t.CircuitType,
			ItemName:        t.ItemName,
			ItemDescription: t.ItemDescription,
			Stage:           t.Stage,
			Progress:        t.Progress,
			UpdatedAt:       t.UpdatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) UpdateCircuitStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage string `json:"stage"`
	}
	if err := httpx.ReadJSON(r, &req, maxBody); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.Circuits.UpdateStage(r.Context(), chi.URLParam(r, "id"), req.Stage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "stage": circuit.NormalizeStage(req.Stage)})
}

func (h *Handlers) UpdateCircuitProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Progress *int `json:"progress"`
	}
	if err := httpx.ReadJSON(r, &req, maxBody); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Progress == nil {
		httpx.WriteError(w, http.StatusBadRequest, "progress is required")
		return
	}
	id, err := h.Circuits.UpdateProgress(r.Context(), chi.URLParam(r, "id"), *req.Progress)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "progress": *req.Progress})
}

func (h *Handlers) AddCircuitMilestone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type  string     `json:"milestone_type"`
		Date  *time.Time `json:"milestone_date"`
		Notes string     `json:"notes"`
	}
	if err := httpx.ReadJSON(r, &req, maxBody); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := circuit.MilestoneInput{Type: req.Type, Notes: req.Notes}
	if req.Date != nil {
		in.Date = req.Date.UTC()
	}
	m, err := h.Circuits.AddMilestone(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMilestoneJSON(m))
}

func (h *Handlers) ListCircuitMilestones(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Circuits.Milestones(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]milestoneJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMilestoneJSON(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
