package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

const scheduleColumns = `schedule_id, org_id, target_user_id, amount, interval_unit, interval_value, last_paid_at, created_at`

// ScheduleStore implements store.ScheduleStore using SQLite.
type ScheduleStore struct {
	q querier
}

func (s *ScheduleStore) Create(ctx context.Context, schedule *models.PaymentSchedule) error {
	var target sql.NullString
	if schedule.TargetUserID != nil {
		target = sql.NullString{String: *schedule.TargetUserID, Valid: true}
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO payment_schedules (`+scheduleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ScheduleID.String(),
		schedule.OrgID.String(),
		target,
		schedule.Amount,
		string(schedule.IntervalUnit),
		schedule.IntervalValue,
		toUnix(schedule.LastPaidAt),
		toUnix(schedule.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create payment schedule: %w", err)
	}

	log.Debug().
		Str("schedule_id", schedule.ScheduleID.String()).
		Str("org_id", schedule.OrgID.String()).
		Msg("Created payment schedule")

	return nil
}

func (s *ScheduleStore) Get(ctx context.Context, scheduleID uuid.UUID) (*models.PaymentSchedule, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM payment_schedules WHERE schedule_id = ?`,
		scheduleID.String(),
	)

	schedule, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get payment schedule: %w", err)
	}
	return schedule, nil
}

func (s *ScheduleStore) List(ctx context.Context) ([]*models.PaymentSchedule, error) {
	return s.list(ctx,
		`SELECT `+scheduleColumns+` FROM payment_schedules ORDER BY created_at ASC, schedule_id ASC`,
	)
}

func (s *ScheduleStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.PaymentSchedule, error) {
	return s.list(ctx,
		`SELECT `+scheduleColumns+` FROM payment_schedules WHERE org_id = ? ORDER BY created_at ASC, schedule_id ASC`,
		orgID.String(),
	)
}

func (s *ScheduleStore) list(ctx context.Context, query string, args ...any) ([]*models.PaymentSchedule, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment schedules: %w", err)
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

func (s *ScheduleStore) Delete(ctx context.Context, scheduleID uuid.UUID) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM payment_schedules WHERE schedule_id = ?`, scheduleID.String())
	if err != nil {
		return fmt.Errorf("failed to delete payment schedule: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete payment schedule: %w", err)
	}
	if n == 0 {
		return store.ErrScheduleNotFound
	}
	return nil
}

// AdvanceLastPaid uses the scalar MAX() so last_paid_at never moves backwards.
func (s *ScheduleStore) AdvanceLastPaid(ctx context.Context, scheduleID uuid.UUID, paidAt time.Time) error {
	result, err := s.q.ExecContext(ctx,
		`UPDATE payment_schedules SET last_paid_at = MAX(last_paid_at, ?) WHERE schedule_id = ?`,
		toUnix(paidAt), scheduleID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to advance last paid: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to advance last paid: %w", err)
	}
	if n == 0 {
		return store.ErrScheduleNotFound
	}
	return nil
}

func scanSchedule(row scanner) (*models.PaymentSchedule, error) {
	var (
		schedule   models.PaymentSchedule
		target     sql.NullString
		unit       string
		lastPaidAt int64
		createdAt  int64
	)

	err := row.Scan(
		&schedule.ScheduleID,
		&schedule.OrgID,
		&target,
		&schedule.Amount,
		&unit,
		&schedule.IntervalValue,
		&lastPaidAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if target.Valid {
		schedule.TargetUserID = &target.String
	}

	schedule.IntervalUnit, err = models.ParseIntervalUnit(unit)
	if err != nil {
		return nil, err
	}

	schedule.LastPaidAt = fromUnix(lastPaidAt)
	schedule.CreatedAt = fromUnix(createdAt)

	return &schedule, nil
}
