package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// ScheduleStore implements store.ScheduleStore using in-memory storage.
type ScheduleStore struct {
	s *Store
}

// Create stores a new payment schedule.
func (ss *ScheduleStore) Create(ctx context.Context, schedule *models.PaymentSchedule) error {
	unlock := ss.s.lockWrite()
	defer unlock()

	if _, exists := ss.s.data.organizations[schedule.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	ss.s.data.schedules[schedule.ScheduleID] = schedule.Clone()

	return nil
}

// Get retrieves a payment schedule by ID.
func (ss *ScheduleStore) Get(ctx context.Context, scheduleID uuid.UUID) (*models.PaymentSchedule, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	schedule, exists := ss.s.data.schedules[scheduleID]
	if !exists {
		return nil, store.ErrScheduleNotFound
	}

	return schedule.Clone(), nil
}

// List returns every payment schedule.
func (ss *ScheduleStore) List(ctx context.Context) ([]*models.PaymentSchedule, error) {
	return ss.list(func(*models.PaymentSchedule) bool { return true }), nil
}

// ListByOrg returns the payment schedules of an organization.
func (ss *ScheduleStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.PaymentSchedule, error) {
	return ss.list(func(s *models.PaymentSchedule) bool { return s.OrgID == orgID }), nil
}

func (ss *ScheduleStore) list(match func(*models.PaymentSchedule) bool) []*models.PaymentSchedule {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	result := make([]*models.PaymentSchedule, 0)
	for _, schedule := range ss.s.data.schedules {
		if match(schedule) {
			result = append(result, schedule.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result
}

// Delete deletes a payment schedule.
func (ss *ScheduleStore) Delete(ctx context.Context, scheduleID uuid.UUID) error {
	unlock := ss.s.lockWrite()
	defer unlock()

	if _, exists := ss.s.data.schedules[scheduleID]; !exists {
		return store.ErrScheduleNotFound
	}

	delete(ss.s.data.schedules, scheduleID)

	return nil
}

// AdvanceLastPaid moves last_paid_at forward to paidAt.
func (ss *ScheduleStore) AdvanceLastPaid(ctx context.Context, scheduleID uuid.UUID, paidAt time.Time) error {
	unlock := ss.s.lockWrite()
	defer unlock()

	schedule, exists := ss.s.data.schedules[scheduleID]
	if !exists {
		return store.ErrScheduleNotFound
	}

	if paidAt.After(schedule.LastPaidAt) {
		schedule.LastPaidAt = paidAt
	}

	return nil
}
