package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"reseller-ops/go_backend/internal/domain/commission"
)

type AgentRepo struct {
	DB *DB
}

const agentColumns = `id::text, name, coalesce(company, ''), commission_rate::text,
	total_earnings::text, coalesce(last_payment_date::text, '')`

func scanAgent(row pgx.Row) (commission.Agent, error) {
	var (
		a            commission.Agent
		rate, earned string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Company, &rate, &earned, &a.LastPaymentDate); err != nil {
		return commission.Agent{}, err
	}
	a.CommissionRate = parseDecimal(rate)
	a.TotalEarnings = parseDecimal(earned)
	return a, nil
}

func (r AgentRepo) AgentByID(ctx context.Context, id string) (*commission.Agent, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	a, err := scanAgent(r.DB.Pool.QueryRow(ctx, `select `+agentColumns+` from agents where id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents loads every agent, for callers that keep the directory in memory.
func (r AgentRepo) ListAgents(ctx context.Context) (commission.AgentList, error) {
	rows, err := r.DB.Pool.Query(ctx, `select `+agentColumns+` from agents order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out commission.AgentList
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r AgentRepo) ClientCommissionOverride(ctx context.Context, clientInfoID string) (*decimal.Decimal, error) {
	uid, ok := parseID(clientInfoID)
	if !ok {
		return nil, nil
	}
	var raw *string
	err := r.DB.Pool.QueryRow(ctx,
		`select commission_override::text from client_info where id = $1`, uid).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d, err := parseOptDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("client_info %s commission_override: %w", clientInfoID, err)
	}
	return d, nil
}
