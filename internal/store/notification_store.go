package store

import (
	"context"
	"fmt"

	"github.com/Priya8975/subscription-reminders/internal/domain"
)

func (s *PostgresStore) RecordNotification(ctx context.Context, rec domain.NotificationRecord) error {
	channels := rec.Channels
	if channels == nil {
		channels = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_log (subscription_id, subscription_name, day_offset, status, channels, error_message, forced)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.SubscriptionID, rec.SubscriptionName, rec.Offset, rec.Status, channels, rec.ErrorMessage, rec.Forced)
	if err != nil {
		return fmt.Errorf("inserting notification record: %w", err)
	}
	return nil
}

// ListNotifications returns the newest records first. An empty
// subscriptionID lists records for every subscription.
func (s *PostgresStore) ListNotifications(ctx context.Context, subscriptionID string, limit int) ([]domain.NotificationRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, subscription_id, subscription_name, day_offset, status, channels, error_message, forced, created_at
		FROM notification_log
		WHERE $1 = '' OR subscription_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, subscriptionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	records := []domain.NotificationRecord{}
	for rows.Next() {
		var r domain.NotificationRecord
		err := rows.Scan(
			&r.ID, &r.SubscriptionID, &r.SubscriptionName, &r.Offset,
			&r.Status, &r.Channels, &r.ErrorMessage, &r.Forced, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	return records, nil
}
