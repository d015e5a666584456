package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSubscriptionExists is returned when a client-supplied id is taken.
var ErrSubscriptionExists = errors.New("subscription already exists")

// Cost and date are rendered as text so they round-trip as the strings the
// domain carries.
const subscriptionColumns = `id, name, cost::text, currency, billing_cycle,
	COALESCE(to_char(next_billing_date, 'YYYY-MM-DD'), ''), created_at, updated_at`

func scanSubscription(row pgx.Row, sub *domain.Subscription) error {
	return row.Scan(
		&sub.ID, &sub.Name, &sub.Cost, &sub.Currency, &sub.BillingCycle,
		&sub.NextBillingDate, &sub.CreatedAt, &sub.UpdatedAt,
	)
}

func (s *PostgresStore) CreateSubscription(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.Subscription, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	var sub domain.Subscription
	err := scanSubscription(s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (id, name, cost, currency, billing_cycle, next_billing_date)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date)
		RETURNING `+subscriptionColumns,
		id, req.Name, req.Cost, req.Currency, req.BillingCycle, req.NextBillingDate,
	), &sub)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSubscriptionExists
		}
		return nil, fmt.Errorf("inserting subscription: %w", err)
	}
	return &sub, nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := scanSubscription(s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE id = $1
	`, id), &sub)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying subscription: %w", err)
	}
	return &sub, nil
}

// ListSubscriptions returns every subscription, soonest billing date first.
func (s *PostgresStore) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		ORDER BY next_billing_date NULLS LAST, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []domain.Subscription{}
	for rows.Next() {
		var sub domain.Subscription
		if err := scanSubscription(rows, &sub); err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}

	return subs, nil
}

func (s *PostgresStore) UpdateSubscription(ctx context.Context, id string, req domain.UpdateSubscriptionRequest) (*domain.Subscription, error) {
	// Build dynamic update query
	setClauses := []string{}
	args := []any{}
	argIdx := 1

	add := func(column, expr string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = "+expr, column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if req.Name != nil {
		add("name", "$%d", *req.Name)
	}
	if req.Cost != nil {
		add("cost", "$%d", *req.Cost)
	}
	if req.Currency != nil {
		add("currency", "$%d", *req.Currency)
	}
	if req.BillingCycle != nil {
		add("billing_cycle", "$%d", *req.BillingCycle)
	}
	if req.NextBillingDate != nil {
		add("next_billing_date", "NULLIF($%d, '')::date", *req.NextBillingDate)
	}

	if len(setClauses) == 0 {
		return s.GetSubscription(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE subscriptions SET %s
		WHERE id = $%d
		RETURNING `+subscriptionColumns,
		strings.Join(setClauses, ", "), argIdx)
	args = append(args, id)

	var sub domain.Subscription
	if err := scanSubscription(s.pool.QueryRow(ctx, query, args...), &sub); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating subscription: %w", err)
	}

	return &sub, nil
}

// DeleteSubscription reports whether a row was removed.
func (s *PostgresStore) DeleteSubscription(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
