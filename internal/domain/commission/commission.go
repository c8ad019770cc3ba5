package commission

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Source names the tier that supplied the applied rate.
type Source string

const (
	SourceTransaction Source = "transaction"
	SourceClient      Source = "client"
	SourceAgent       Source = "agent"
	SourceNone        Source = "none"
)

type Agent struct {
	ID              string
	Name            string
	Company         string
	CommissionRate  decimal.Decimal
	TotalEarnings   decimal.Decimal
	LastPaymentDate string
}

// AgentDirectory finds an agent by id. A missing agent is (nil, nil).
type AgentDirectory interface {
	AgentByID(ctx context.Context, id string) (*Agent, error)
}

// ClientOverrides reads client_info.commission_override. A null override and a
// missing row are both (nil, nil).
type ClientOverrides interface {
	ClientCommissionOverride(ctx context.Context, clientInfoID string) (*decimal.Decimal, error)
}

// AgentList is an agent directory over agents the caller already loaded.
type AgentList []Agent

func (l AgentList) AgentByID(_ context.Context, id string) (*Agent, error) {
	for i := range l {
		if l[i].ID == id {
			a := l[i]
			return &a, nil
		}
	}
	return nil, nil
}

type Result struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Source Source
}

type Resolver struct {
	Agents  AgentDirectory
	Clients ClientOverrides
}

func NewResolver(agents AgentDirectory, clients ClientOverrides) *Resolver {
	return &Resolver{Agents: agents, Clients: clients}
}

// Resolve returns the commission amount for a transaction. Precedence is
// transaction override, then client override, then the agent default rate.
func (r *Resolver) Resolve(ctx context.Context, amount decimal.Decimal, agentID, clientInfoID string, txOverride *decimal.Decimal) (decimal.Decimal, error) {
	res, err := r.ResolveDetail(ctx, amount, agentID, clientInfoID, txOverride)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Amount, nil
}

func (r *Resolver) ResolveDetail(ctx context.Context, amount decimal.Decimal, agentID, clientInfoID string, txOverride *decimal.Decimal) (Result, error) {
	if txOverride != nil {
		return apply(amount, *txOverride, SourceTransaction), nil
	}

	if id := strings.TrimSpace(clientInfoID); id != "" && r.Clients != nil {
		override, err := r.Clients.ClientCommissionOverride(ctx, id)
		if err != nil {
			return Result{}, fmt.Errorf("client override lookup %s: %w", id, err)
		}
		if override != nil {
			return apply(amount, *override, SourceClient), nil
		}
	}

	if r.Agents == nil || strings.TrimSpace(agentID) == "" {
		return Result{Amount: decimal.Zero, Rate: decimal.Zero, Source: SourceNone}, nil
	}
	agent, err := r.Agents.AgentByID(ctx, agentID)
	if err != nil {
		return Result{}, fmt.Errorf("agent lookup %s: %w", agentID, err)
	}
	if agent == nil {
		return Result{Amount: decimal.Zero, Rate: decimal.Zero, Source: SourceNone}, nil
	}
	return apply(amount, agent.CommissionRate, SourceAgent), nil
}

func apply(amount, rate decimal.Decimal, src Source) Result {
	return Result{
		Amount: amount.Mul(rate).Div(hundred),
		Rate:   rate,
		Source: src,
	}
}

// Display formats a commission amount the way quotes show it.
func Display(v decimal.Decimal) string {
	return v.StringFixed(2)
}
