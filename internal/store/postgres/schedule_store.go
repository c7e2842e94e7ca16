package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

const scheduleColumns = `schedule_id, org_id, target_user_id, amount, interval_unit, interval_value, last_paid_at, created_at`

// ScheduleStore implements store.ScheduleStore using PostgreSQL.
type ScheduleStore struct {
	q querier
}

// Create stores a new payment schedule.
func (s *ScheduleStore) Create(ctx context.Context, schedule *models.PaymentSchedule) error {
	query := `
		INSERT INTO payment_schedules (
			` + scheduleColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.q.Exec(ctx, query,
		schedule.ScheduleID,
		schedule.OrgID,
		schedule.TargetUserID,
		schedule.Amount,
		string(schedule.IntervalUnit),
		schedule.IntervalValue,
		schedule.LastPaidAt,
		schedule.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create payment schedule: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("schedule_id", schedule.ScheduleID.String()).
		Str("org_id", schedule.OrgID.String()).
		Int64("amount", schedule.Amount).
		Msg("Created payment schedule")

	return nil
}

// Get retrieves a payment schedule by ID.
func (s *ScheduleStore) Get(ctx context.Context, scheduleID uuid.UUID) (*models.PaymentSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM payment_schedules WHERE schedule_id = $1`

	schedule, err := scanSchedule(s.q.QueryRow(ctx, query, scheduleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get payment schedule: %w", mapPostgresError(err))
	}

	return schedule, nil
}

// List returns every payment schedule ordered by creation time.
func (s *ScheduleStore) List(ctx context.Context) ([]*models.PaymentSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM payment_schedules ORDER BY created_at ASC, schedule_id ASC`

	return s.list(ctx, query)
}

// ListByOrg returns the payment schedules of one organization.
func (s *ScheduleStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.PaymentSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM payment_schedules WHERE org_id = $1 ORDER BY created_at ASC, schedule_id ASC`

	return s.list(ctx, query, orgID)
}

func (s *ScheduleStore) list(ctx context.Context, query string, args ...any) ([]*models.PaymentSchedule, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment schedules: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var schedules []*models.PaymentSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment schedules: %w", err)
	}

	return schedules, nil
}

// Delete deletes a payment schedule by ID.
func (s *ScheduleStore) Delete(ctx context.Context, scheduleID uuid.UUID) error {
	query := `DELETE FROM payment_schedules WHERE schedule_id = $1`

	result, err := s.q.Exec(ctx, query, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to delete payment schedule: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrScheduleNotFound
	}

	return nil
}

// AdvanceLastPaid moves last_paid_at forward to paidAt. GREATEST keeps the
// column monotonic under concurrent writers.
func (s *ScheduleStore) AdvanceLastPaid(ctx context.Context, scheduleID uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE payment_schedules
		SET last_paid_at = GREATEST(last_paid_at, $2)
		WHERE schedule_id = $1
	`

	result, err := s.q.Exec(ctx, query, scheduleID, paidAt)
	if err != nil {
		return fmt.Errorf("failed to advance last paid: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrScheduleNotFound
	}

	log.Debug().
		Str("schedule_id", scheduleID.String()).
		Time("paid_at", paidAt).
		Msg("Advanced last paid")

	return nil
}

func scanSchedule(row pgx.Row) (*models.PaymentSchedule, error) {
	var (
		schedule models.PaymentSchedule
		unit     string
	)

	err := row.Scan(
		&schedule.ScheduleID,
		&schedule.OrgID,
		&schedule.TargetUserID,
		&schedule.Amount,
		&unit,
		&schedule.IntervalValue,
		&schedule.LastPaidAt,
		&schedule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	schedule.IntervalUnit, err = models.ParseIntervalUnit(unit)
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}
