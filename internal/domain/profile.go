package domain

import (
	"fmt"
	"slices"
	"time"
)

// Notification permission states, mirroring what a device reports.
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionDefault = "default"
)

// DefaultReminderDays is used until the user picks their own lead times.
var DefaultReminderDays = ReminderDays{1, 3}

// ReminderDays is a set of non-negative day offsets, kept sorted and unique.
type ReminderDays []int

// NewReminderDays normalizes days into a set. Negative offsets are rejected.
func NewReminderDays(days ...int) (ReminderDays, error) {
	set := make(ReminderDays, 0, len(days))
	for _, d := range days {
		if d < 0 {
			return nil, fmt.Errorf("reminder day %d is negative", d)
		}
		if !slices.Contains(set, d) {
			set = append(set, d)
		}
	}
	slices.Sort(set)
	return set, nil
}

// Contains reports whether offset is one of the configured lead times.
func (r ReminderDays) Contains(offset int) bool {
	return slices.Contains(r, offset)
}

// ReminderProfile holds the user's notification preferences.
type ReminderProfile struct {
	Name                 string       `json:"name"`
	NotificationsEnabled bool         `json:"notifications_enabled"`
	ReminderDays         ReminderDays `json:"reminder_days"`
	Permission           string       `json:"permission"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// DefaultProfile is returned before the user has saved any preferences.
func DefaultProfile() ReminderProfile {
	return ReminderProfile{
		ReminderDays: slices.Clone(DefaultReminderDays),
		Permission:   PermissionDefault,
	}
}

// SystemNotificationsAllowed reports whether OS-level and browser channels may
// be used for this profile.
func (p ReminderProfile) SystemNotificationsAllowed() bool {
	return p.Permission == PermissionGranted
}

type UpdateProfileRequest struct {
	Name                 *string `json:"name,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
	ReminderDays         []int   `json:"reminder_days,omitempty"`
	Permission           *string `json:"permission,omitempty"`
}
