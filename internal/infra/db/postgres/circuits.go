package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"reseller-ops/go_backend/internal/domain/circuit"
)

type CircuitRepo struct {
	DB *DB
}

func (r CircuitRepo) ListTracking(ctx context.Context) ([]circuit.Tracking, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		select id::text, coalesce(order_id::text, ''), coalesce(quote_item_id::text, ''),
			coalesce(circuit_type, ''), coalesce(item_name, ''), coalesce(item_description, ''),
			stage, progress, created_at, updated_at
		from circuit_tracking
		order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []circuit.Tracking
	for rows.Next() {
		var t circuit.Tracking
		if err := rows.Scan(&t.ID, &t.OrderID, &t.QuoteItemID, &t.CircuitType, &t.ItemName,
			&t.ItemDescription, &t.Stage, &t.Progress, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListAcceptedOrders joins orders of accepted quotes with their line items and
// the catalog item/category names.
func (r CircuitRepo) ListAcceptedOrders(ctx context.Context) ([]circuit.AcceptedOrder, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		select o.id::text, q.id::text, qi.id::text,
			coalesce(i.name, qi.name, ''), coalesce(i.description, qi.description, ''), coalesce(c.name, '')
		from orders o
		join quotes q on q.id = o.quote_id and q.status = 'accepted'
		join quote_items qi on qi.quote_id = q.id
		left join items i on i.id = qi.item_id
		left join categories c on c.id = i.category_id
		order by o.created_at, o.id, qi.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []circuit.AcceptedOrder
	for rows.Next() {
		var (
			orderID, quoteID string
			it               circuit.OrderItem
		)
		if err := rows.Scan(&orderID, &quoteID, &it.QuoteItemID, &it.ItemName,
			&it.ItemDescription, &it.CategoryName); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != orderID {
			out = append(out, circuit.AcceptedOrder{ID: orderID, QuoteID: quoteID})
		}
		last := &out[len(out)-1]
		last.Items = append(last.Items, it)
	}
	return out, rows.Err()
}

func (r CircuitRepo) InsertTracking(ctx context.Context, t circuit.Tracking) (string, error) {
	stage := t.Stage
	if stage == "" {
		stage = circuit.StageReadyToOrder
	}
	var id string
	err := r.DB.Pool.QueryRow(ctx, `
		insert into circuit_tracking (order_id, quote_item_id, circuit_type, item_name,
			item_description, stage, progress)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id::text`,
		optID(t.OrderID), optID(t.QuoteItemID), t.CircuitType, t.ItemName,
		t.ItemDescription, stage, t.Progress,
	).Scan(&id)
	return id, err
}

func (r CircuitRepo) UpdateStage(ctx context.Context, id, stage string) error {
	return r.update(ctx, `update circuit_tracking set stage = $2, updated_at = now() where id = $1`, id, stage)
}

func (r CircuitRepo) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.update(ctx, `update circuit_tracking set progress = $2, updated_at = now() where id = $1`, id, progress)
}

func (r CircuitRepo) update(ctx context.Context, sql, id string, value any) error {
	uid, ok := parseID(id)
	if !ok {
		return circuit.ErrNotFound
	}
	tag, err := r.DB.Pool.Exec(ctx, sql, uid, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return circuit.ErrNotFound
	}
	return nil
}

func (r CircuitRepo) InsertMilestone(ctx context.Context, m circuit.Milestone) (string, error) {
	uid, ok := parseID(m.CircuitTrackingID)
	if !ok {
		return "", circuit.ErrNotFound
	}
	var id string
	err := r.DB.Pool.QueryRow(ctx, `
		insert into circuit_milestones (circuit_tracking_id, milestone_type, milestone_date, notes)
		values ($1, $2, $3, $4)
		returning id::text`,
		uid, m.Type, m.Date, m.Notes,
	).Scan(&id)
	return id, err
}

// ListMilestones returns the milestones of one tracking row, oldest first.
func (r CircuitRepo) ListMilestones(ctx context.Context, trackingID string) ([]circuit.Milestone, error) {
	uid, ok := parseID(trackingID)
	if !ok {
		return nil, nil
	}
	rows, err := r.DB.Pool.Query(ctx, `
		select id::text, circuit_tracking_id::text, milestone_type, milestone_date,
			coalesce(notes, ''), created_at
		from circuit_milestones where circuit_tracking_id = $1
		order by milestone_date, created_at`, uid)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (circuit.Milestone, error) {
		var m circuit.Milestone
		err := row.Scan(&m.ID, &m.CircuitTrackingID, &m.Type, &m.Date, &m.Notes, &m.CreatedAt)
		return m, err
	})
}
