package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgpay/internal/ledger"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/schedule"
	"github.com/wolfeidau/orgpay/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// PassResult summarises a single pass.
type PassResult struct {
	Scanned   int           `json:"scanned"`   // schedules listed
	Due       int           `json:"due"`       // schedules found due
	Advanced  int           `json:"advanced"`  // due schedules with at least one successful credit
	Empty     int           `json:"empty"`     // due schedules with no recipients
	Attempted int           `json:"attempted"` // ledger credit calls
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// MarshalZerologObject lets a PassResult be embedded in a log event.
func (r PassResult) MarshalZerologObject(e *zerolog.Event) {
	e.Int("scanned", r.Scanned).
		Int("due", r.Due).
		Int("advanced", r.Advanced).
		Int("empty", r.Empty).
		Int("attempted", r.Attempted).
		Int("succeeded", r.Succeeded).
		Int("failed", r.Failed).
		Dur("duration", r.Duration)
}

type passStats struct {
	advanced  atomic.Int64
	empty     atomic.Int64
	attempted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// RunPass runs a single pass over every schedule.
// It returns ErrPassInProgress if another pass is already running. Failures
// for individual schedules or recipients are logged and counted, not returned.
func (d *Dispatcher) RunPass(ctx context.Context) (PassResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return PassResult{}, ErrPassInProgress
	}
	defer d.running.Store(false)

	started := time.Now()
	now := d.now()
	d.metrics.PassesTotal.Add(ctx, 1)

	schedules, err := d.store.Schedules().List(ctx)
	if err != nil {
		d.metrics.PassErrorsTotal.Add(ctx, 1)
		return PassResult{}, fmt.Errorf("failed to list schedules: %w", err)
	}

	res := PassResult{Scanned: len(schedules)}
	var stats passStats

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)

	for _, s := range schedules {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Interval(); err != nil {
			d.logger.Warn().Err(err).Str("schedule_id", s.ScheduleID.String()).Msg("skipping schedule with invalid interval")
			continue
		}
		if !schedule.IsDue(s, now) {
			continue
		}
		res.Due++

		g.Go(func() error {
			d.processSchedule(ctx, s, now, &stats)
			return nil
		})
	}

	_ = g.Wait()

	res.Advanced = int(stats.advanced.Load())
	res.Empty = int(stats.empty.Load())
	res.Attempted = int(stats.attempted.Load())
	res.Succeeded = int(stats.succeeded.Load())
	res.Failed = int(stats.failed.Load())
	res.Duration = time.Since(started)

	d.lastPass.Store(&completedPass{result: res, at: time.Now()})

	d.metrics.SchedulesDue.Add(ctx, int64(res.Due))
	d.metrics.PassDuration.Record(ctx, float64(res.Duration.Milliseconds()))

	return res, nil
}

// processSchedule credits every recipient of a due schedule in order.
func (d *Dispatcher) processSchedule(ctx context.Context, s *models.PaymentSchedule, now time.Time, stats *passStats) {
	logger := d.logger.With().
		Str("schedule_id", s.ScheduleID.String()).
		Str("org_id", s.OrgID.String()).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.PanicsTotal.Add(ctx, 1)
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered panic while processing schedule")
		}
	}()

	recipients, err := schedule.Recipients(ctx, s, d.store.Members())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve recipients")
		return
	}

	if len(recipients) == 0 {
		// left due so it is retried on the next pass
		stats.empty.Add(1)
		d.metrics.SchedulesEmpty.Add(ctx, 1)
		logger.Debug().Msg("Schedule has no recipients")
		return
	}

	reference := paymentReference(s)
	advanced := false

	for _, userID := range recipients {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Pass cancelled, stopping schedule")
			break
		}

		stats.attempted.Add(1)
		if err := d.credit(ctx, s, userID, reference); err != nil {
			stats.failed.Add(1)
			logger.Error().Err(err).
				Str("user_id", userID).
				Int64("amount", s.Amount).
				Msg("Credit failed, will retry on a later pass")
			continue
		}
		stats.succeeded.Add(1)

		logger.Info().
			Str("user_id", userID).
			Int64("amount", s.Amount).
			Msg("Credited member")

		if err := d.advance(ctx, s, now); err != nil {
			if errors.Is(err, store.ErrScheduleNotFound) {
				logger.Warn().Msg("Schedule deleted during pass, stopping")
				break
			}
			logger.Error().Err(err).Msg("Failed to record payment")
			continue
		}
		advanced = true
	}

	if advanced {
		stats.advanced.Add(1)
		d.metrics.SchedulesAdvanced.Add(ctx, 1)
	}
}

// credit calls the ledger with a per-call timeout. A panic in the ledger is
// converted into an error so the remaining recipients are still paid.
func (d *Dispatcher) credit(ctx context.Context, s *models.PaymentSchedule, userID, reference string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.PanicsTotal.Add(ctx, 1)
			err = fmt.Errorf("%w: panic: %v", ledger.ErrCreditFailed, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.cfg.CreditTimeout)
	defer cancel()

	ctx = ledger.WithReference(ctx, reference+":"+userID)

	started := time.Now()
	err = d.ledger.Credit(ctx, userID, s.Amount)

	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	d.metrics.CreditsTotal.Add(ctx, 1, attrs)
	d.metrics.CreditDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	if err != nil {
		d.metrics.CreditErrorsTotal.Add(ctx, 1)
		return err
	}
	d.metrics.PointsCreditedTotal.Add(ctx, s.Amount)

	return nil
}

// advance records the payment in its own transaction. It is not cancelled with
// the pass: once the ledger has credited, the write must still land.
func (d *Dispatcher) advance(ctx context.Context, s *models.PaymentSchedule, now time.Time) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.CreditTimeout)
	defer cancel()

	return d.store.WithTx(ctx, func(tx store.Store) error {
		return tx.Schedules().AdvanceLastPaid(ctx, s.ScheduleID, now)
	})
}

// paymentReference identifies one due payment of a schedule. It stays the same
// until the schedule is advanced, so a ledger can deduplicate retries.
func paymentReference(s *models.PaymentSchedule) string {
	due, err := schedule.NextDue(s)
	if err != nil {
		due = s.LastPaidAt
	}
	return fmt.Sprintf("%s:%d", s.ScheduleID, due.Unix())
}
