package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"reseller-ops/go_backend/internal/app/http/httpx"
	"reseller-ops/go_backend/internal/domain/commission"
)

type resolveCommissionRequest struct {
	Amount             decimal.Decimal  `json:"amount"`
	AgentID            string           `json:"agent_id"`
	ClientInfoID       string           `json:"client_info_id"`
	CommissionOverride *decimal.Decimal `json:"commission_override"`
}

type resolveCommissionResponse struct {
	Commission string `json:"commission"`
	Rate       string `json:"rate"`
	Source     string `json:"source"`
}

func (h *Handlers) ResolveCommission(w http.ResponseWriter, r *http.Request) {
	var req resolveCommissionRequest
	if err := httpx.ReadJSON(r, &req, maxBody); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount.IsNegative() {
		httpx.WriteError(w, http.StatusBadRequest, "amount must be >= 0")
		return
	}
	res, err := h.Commission.ResolveDetail(r.Context(), req.Amount, req.AgentID, req.ClientInfoID, req.CommissionOverride)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resolveCommissionResponse{
		Commission: commission.Display(res.Amount),
		Rate:       res.Rate.String(),
		Source:     string(res.Source),
	})
}

type agentJSON struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Company         string `json:"company,omitempty"`
	CommissionRate  string `json:"commission_rate"`
	TotalEarnings   string `json:"total_earnings"`
	LastPaymentDate string `json:"last_payment_date,omitempty"`
}

func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Agents.ListAgents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]agentJSON, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentJSON{
			ID:              a.ID,
			Name:            a.Name,
			Company:         a.Company,
			CommissionRate:  a.CommissionRate.String(),
			TotalEarnings:   commission.Display(a.TotalEarnings),
			LastPaymentDate: a.LastPaymentDate,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
