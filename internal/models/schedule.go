package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// IntervalUnit is the unit of a payment interval.
// Only the values declared below are valid; use ParseIntervalUnit for untrusted input.
type IntervalUnit string

const (
	IntervalMinutes IntervalUnit = "minutes"
	IntervalHours   IntervalUnit = "hours"
	IntervalDays    IntervalUnit = "days"
)

// ParseIntervalUnit converts a string into an IntervalUnit.
// Unknown values are rejected with ErrInvalidArgument.
func ParseIntervalUnit(s string) (IntervalUnit, error) {
	unit := IntervalUnit(s)
	if !unit.Valid() {
		return "", fmt.Errorf("%w: unknown interval unit %q", ErrInvalidArgument, s)
	}
	return unit, nil
}

// Valid reports whether u is one of the declared units.
func (u IntervalUnit) Valid() bool {
	switch u {
	case IntervalMinutes, IntervalHours, IntervalDays:
		return true
	}
	return false
}

// Duration returns the fixed length of a single unit.
func (u IntervalUnit) Duration() time.Duration {
	switch u {
	case IntervalMinutes:
		return time.Minute
	case IntervalHours:
		return time.Hour
	case IntervalDays:
		return 24 * time.Hour
	}
	return 0
}

func (u IntervalUnit) String() string {
	return string(u)
}

// MaxIntervalValue is the largest magnitude of unit that fits in a time.Duration.
func MaxIntervalValue(unit IntervalUnit) int64 {
	d := unit.Duration()
	if d <= 0 {
		return 0
	}
	return math.MaxInt64 / int64(d)
}

// Interval converts a unit and magnitude into a fixed-length duration.
// No calendar arithmetic is applied: a day is always 24 hours.
func Interval(unit IntervalUnit, value int64) (time.Duration, error) {
	if !unit.Valid() {
		return 0, fmt.Errorf("%w: unknown interval unit %q", ErrInvalidArgument, string(unit))
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidArgument, value)
	}
	if value > MaxIntervalValue(unit) {
		return 0, fmt.Errorf("%w: interval of %d %s exceeds the maximum of %d", ErrInvalidArgument, value, unit, MaxIntervalValue(unit))
	}
	return time.Duration(value) * unit.Duration(), nil
}

// PaymentSchedule is a recurring disbursement rule.
// A nil TargetUserID means the schedule pays every member of the organization,
// resolved when the schedule is evaluated.
type PaymentSchedule struct {
	ScheduleID    uuid.UUID // UUIDv7
	OrgID         uuid.UUID // FK to organizations
	TargetUserID  *string   // nil for organization-wide schedules
	Amount        int64     // points, > 0
	IntervalUnit  IntervalUnit
	IntervalValue int64 // > 0
	LastPaidAt    time.Time
	CreatedAt     time.Time
}

// NewPaymentSchedule validates the arguments and returns a schedule whose
// LastPaidAt starts at its creation time.
func NewPaymentSchedule(orgID uuid.UUID, target *string, amount int64, unit IntervalUnit, value int64, now time.Time) (*PaymentSchedule, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidArgument, amount)
	}
	if _, err := Interval(unit, value); err != nil {
		return nil, err
	}

	return &PaymentSchedule{
		ScheduleID:    uuid.Must(uuid.NewV7()),
		OrgID:         orgID,
		TargetUserID:  target,
		Amount:        amount,
		IntervalUnit:  unit,
		IntervalValue: value,
		LastPaidAt:    now,
		CreatedAt:     now,
	}, nil
}

// IsOrganizationWide returns true if the schedule pays all current members.
func (s *PaymentSchedule) IsOrganizationWide() bool {
	return s.TargetUserID == nil
}

// Interval returns the schedule's payment interval.
func (s *PaymentSchedule) Interval() (time.Duration, error) {
	return Interval(s.IntervalUnit, s.IntervalValue)
}

// Clone returns a deep copy of the schedule.
func (s *PaymentSchedule) Clone() *PaymentSchedule {
	clone := *s
	if s.TargetUserID != nil {
		target := *s.TargetUserID
		clone.TargetUserID = &target
	}
	return &clone
}
