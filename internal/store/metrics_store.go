package store

import (
	"context"
	"fmt"
	"time"
)

// NotificationMetrics holds aggregated reminder statistics.
type NotificationMetrics struct {
	TotalNotifications int        `json:"total_notifications"`
	SentCount          int        `json:"sent_count"`
	FailedCount        int        `json:"failed_count"`
	ForcedCount        int        `json:"forced_count"`
	SuccessRate        float64    `json:"success_rate"`
	LastSentAt         *time.Time `json:"last_sent_at,omitempty"`
	Subscriptions      int        `json:"subscriptions"`
	UpcomingWeek       int        `json:"upcoming_week"`
}

// GetNotificationMetrics returns aggregated reminder statistics from the database.
func (s *PostgresStore) GetNotificationMetrics(ctx context.Context) (*NotificationMetrics, error) {
	var m NotificationMetrics

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'sent') AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE forced) AS forced,
			MAX(created_at) FILTER (WHERE status = 'sent') AS last_sent
		FROM notification_log
	`).Scan(&m.TotalNotifications, &m.SentCount, &m.FailedCount, &m.ForcedCount, &m.LastSentAt)
	if err != nil {
		return nil, fmt.Errorf("querying notification metrics: %w", err)
	}

	if m.TotalNotifications > 0 {
		m.SuccessRate = float64(m.SentCount) / float64(m.TotalNotifications) * 100
	}

	// Tracked subscriptions and those renewing within a week
	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE next_billing_date BETWEEN CURRENT_DATE AND CURRENT_DATE + 7)
		FROM subscriptions
	`).Scan(&m.Subscriptions, &m.UpcomingWeek)
	if err != nil {
		return nil, fmt.Errorf("querying subscription counts: %w", err)
	}

	return &m, nil
}
