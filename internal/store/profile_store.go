package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetProfile returns the saved reminder profile, or the defaults when none
// has been saved yet.
func (s *PostgresStore) GetProfile(ctx context.Context) (domain.ReminderProfile, error) {
	var p domain.ReminderProfile
	var days []int

	err := s.pool.QueryRow(ctx, `
		SELECT name, notifications_enabled, reminder_days, permission, updated_at
		FROM reminder_profile WHERE id = 1
	`).Scan(&p.Name, &p.NotificationsEnabled, &days, &p.Permission, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultProfile(), nil
		}
		return domain.ReminderProfile{}, fmt.Errorf("querying profile: %w", err)
	}

	p.ReminderDays, err = domain.NewReminderDays(days...)
	if err != nil {
		return domain.ReminderProfile{}, fmt.Errorf("stored reminder days: %w", err)
	}
	return p, nil
}

// SaveProfile upserts the single profile row.
func (s *PostgresStore) SaveProfile(ctx context.Context, p domain.ReminderProfile) (domain.ReminderProfile, error) {
	days := []int(p.ReminderDays)
	if days == nil {
		days = []int{}
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO reminder_profile (id, name, notifications_enabled, reminder_days, permission, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			notifications_enabled = EXCLUDED.notifications_enabled,
			reminder_days = EXCLUDED.reminder_days,
			permission = EXCLUDED.permission,
			updated_at = NOW()
		RETURNING updated_at
	`, p.Name, p.NotificationsEnabled, days, p.Permission).Scan(&p.UpdatedAt)
	if err != nil {
		return domain.ReminderProfile{}, fmt.Errorf("saving profile: %w", err)
	}
	return p, nil
}
