package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
)

// ErrScheduleNotFound is returned when a payment schedule doesn't exist.
var ErrScheduleNotFound = errors.New("payment schedule not found")

// ScheduleStore defines the interface for payment schedule storage.
type ScheduleStore interface {
	// Create stores a new payment schedule.
	// Returns ErrOrganizationNotFound if the owning organization doesn't exist.
	Create(ctx context.Context, schedule *models.PaymentSchedule) error

	// Get retrieves a payment schedule by ID.
	// Returns ErrScheduleNotFound if the schedule doesn't exist.
	Get(ctx context.Context, scheduleID uuid.UUID) (*models.PaymentSchedule, error)

	// List returns every payment schedule across all organizations.
	List(ctx context.Context) ([]*models.PaymentSchedule, error)

	// ListByOrg returns the payment schedules of a single organization.
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.PaymentSchedule, error)

	// Delete deletes a payment schedule by ID.
	// Returns ErrScheduleNotFound if the schedule doesn't exist.
	Delete(ctx context.Context, scheduleID uuid.UUID) error

	// AdvanceLastPaid sets last_paid_at to paidAt if paidAt is later than the stored value.
	// The timestamp never moves backwards, so concurrent or repeated writes are safe.
	// Returns ErrScheduleNotFound if the schedule doesn't exist.
	AdvanceLastPaid(ctx context.Context, scheduleID uuid.UUID, paidAt time.Time) error
}
