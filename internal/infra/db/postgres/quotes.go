package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reseller-ops/go_backend/internal/domain/quote"
)

type QuoteRepo struct {
	DB *DB
}

func (r QuoteRepo) LatestQuoteNumber(ctx context.Context, userID string) (string, bool, error) {
	uid, ok := parseID(userID)
	if !ok {
		return "", false, nil
	}
	var number string
	err := r.DB.Pool.QueryRow(ctx, `
		select quote_number from quotes
		where user_id = $1 and quote_number is not null
		order by created_at desc
		limit 1`, uid).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return number, true, nil
}

func (r QuoteRepo) QuoteNumbersWithPrefix(ctx context.Context, userID, prefix string) ([]string, error) {
	uid, ok := parseID(userID)
	if !ok {
		return nil, nil
	}
	rows, err := r.DB.Pool.Query(ctx, `
		select quote_number from quotes
		where user_id = $1 and quote_number like $2`, uid, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r QuoteRepo) InsertQuote(ctx context.Context, q *quote.Quote) error {
	userID, ok := parseID(q.UserID)
	if !ok {
		return fmt.Errorf("invalid user id %q", q.UserID)
	}
	return pgx.BeginFunc(ctx, r.DB.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			insert into quotes (user_id, client_id, client_info_id, agent_id, quote_number, status,
				amount, commission_override, commission, customer_name, customer_contact, customer_email, comment)
			values ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12, $13)
			returning id::text, created_at`,
			userID, optID(q.ClientID), optID(q.ClientInfoID), optID(q.AgentID), q.Number, q.Status,
			q.Amount.String(), optDecimal(q.CommissionOverride), q.Commission.String(),
			q.Customer.Name, q.Customer.Contact, q.Customer.Email, q.Comment,
		).Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			return err
		}
		for i := range q.Items {
			it := &q.Items[i]
			err := tx.QueryRow(ctx, `
				insert into quote_items (quote_id, item_id, name, description, quantity,
					unit_price, total_price, charge_type, address_id, position)
				values ($1::uuid, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10)
				returning id::text`,
				q.ID, optID(it.ItemID), it.Name, it.Description, it.Quantity,
				it.UnitPrice.String(), it.TotalPrice.String(), string(it.ChargeType), optID(it.AddressID), i,
			).Scan(&it.ID)
			if err != nil {
				return fmt.Errorf("item %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func (r QuoteRepo) GetQuote(ctx context.Context, id string) (*quote.Quote, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, quote.ErrNotFound
	}
	var (
		q                  quote.Quote
		amount, commission string
		override           *string
	)
	err := r.DB.Pool.QueryRow(ctx, `
		select id::text, user_id::text, coalesce(quote_number, ''), coalesce(client_id::text, ''),
			coalesce(client_info_id::text, ''), coalesce(agent_id::text, ''), status,
			amount::text, commission_override::text, commission::text,
			coalesce(customer_name, ''), coalesce(customer_contact, ''), coalesce(customer_email, ''),
			coalesce(comment, ''), created_at
		from quotes where id = $1`, uid).Scan(
		&q.ID, &q.UserID, &q.Number, &q.ClientID, &q.ClientInfoID, &q.AgentID, &q.Status,
		&amount, &override, &commission,
		&q.Customer.Name, &q.Customer.Contact, &q.Customer.Email, &q.Comment, &q.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, quote.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	q.Amount = parseDecimal(amount)
	q.Commission = parseDecimal(commission)
	if q.CommissionOverride, err = parseOptDecimal(override); err != nil {
		return nil, err
	}

	rows, err := r.DB.Pool.Query(ctx, `
		select id::text, coalesce(item_id::text, ''), coalesce(name, ''), coalesce(description, ''),
			quantity, unit_price::text, total_price::text, charge_type, coalesce(address_id::text, '')
		from quote_items where quote_id = $1
		order by position`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it          quote.Item
			unit, total string
			ct          string
		)
		if err := rows.Scan(&it.ID, &it.ItemID, &it.Name, &it.Description, &it.Quantity,
			&unit, &total, &ct, &it.AddressID); err != nil {
			return nil, err
		}
		it.UnitPrice = parseDecimal(unit)
		it.TotalPrice = parseDecimal(total)
		it.ChargeType = quote.ChargeType(ct)
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r QuoteRepo) UpdateQuoteStatus(ctx context.Context, id, status string) error {
	uid, ok := parseID(id)
	if !ok {
		return quote.ErrNotFound
	}
	tag, err := r.DB.Pool.Exec(ctx, `update quotes set status = $2 where id = $1`, uid, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quote.ErrNotFound
	}
	return nil
}

// AcceptQuote marks the quote accepted and opens its order in one
// transaction. At most one order exists per quote; an existing one is returned.
func (r QuoteRepo) AcceptQuote(ctx context.Context, quoteID string) (string, error) {
	uid, ok := parseID(quoteID)
	if !ok {
		return "", quote.ErrNotFound
	}
	var orderID string
	err := pgx.BeginFunc(ctx, r.DB.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `update quotes set status = $2 where id = $1`, uid, quote.StatusAccepted)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return quote.ErrNotFound
		}
		if _, err := tx.Exec(ctx,
			`insert into orders (quote_id) values ($1) on conflict (quote_id) do nothing`, uid); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return tx.QueryRow(ctx, `select id::text from orders where quote_id = $1`, uid).Scan(&orderID)
	})
	if err != nil {
		return "", err
	}
	return orderID, nil
}
