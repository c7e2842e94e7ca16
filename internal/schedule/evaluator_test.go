package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgpay/internal/models"
)

type fakeMembers struct {
	members map[uuid.UUID][]*models.Member
	err     error
	calls   int
}

func (f *fakeMembers) ListByOrg(_ context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.members[orgID], nil
}

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newSchedule(t *testing.T, target *string, unit models.IntervalUnit, value int64) *models.PaymentSchedule {
	t.Helper()
	s, err := models.NewPaymentSchedule(uuid.Must(uuid.NewV7()), target, 100, unit, value, t0)
	require.NoError(t, err)
	return s
}

func TestIsDue(t *testing.T) {
	tests := []struct {
		name  string
		unit  models.IntervalUnit
		value int64
		now   time.Time
		due   bool
	}{
		{name: "just created", unit: models.IntervalMinutes, value: 1, now: t0, due: false},
		{name: "one second short", unit: models.IntervalMinutes, value: 1, now: t0.Add(59 * time.Second), due: false},
		{name: "exactly one interval", unit: models.IntervalMinutes, value: 1, now: t0.Add(time.Minute), due: true},
		{name: "past interval", unit: models.IntervalMinutes, value: 1, now: t0.Add(61 * time.Second), due: true},
		{name: "many intervals behind", unit: models.IntervalHours, value: 1, now: t0.Add(10 * time.Hour), due: true},
		{name: "days are 24 hours", unit: models.IntervalDays, value: 1, now: t0.Add(24*time.Hour - time.Nanosecond), due: false},
		{name: "clock behind last paid", unit: models.IntervalMinutes, value: 1, now: t0.Add(-time.Hour), due: false},
		{name: "largest days interval not due soon", unit: models.IntervalDays, value: 106751, now: t0.Add(24 * time.Hour), due: false},
		{name: "largest days interval due at end", unit: models.IntervalDays, value: 106751, now: t0.Add(106751 * 24 * time.Hour), due: true},
		{name: "largest minutes interval not due in a century", unit: models.IntervalMinutes, value: models.MaxIntervalValue(models.IntervalMinutes), now: t0.AddDate(100, 0, 0), due: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSchedule(t, nil, tt.unit, tt.value)
			require.Equal(t, tt.due, IsDue(s, tt.now))
		})
	}
}

func TestIsDue_InvalidIntervalNeverDue(t *testing.T) {
	s := newSchedule(t, nil, models.IntervalMinutes, 1)
	s.IntervalUnit = models.IntervalUnit("weeks")
	require.False(t, IsDue(s, t0.Add(365*24*time.Hour)))

	_, err := NextDue(s)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestIsDue_OverflowingIntervalNeverDue(t *testing.T) {
	s := newSchedule(t, nil, models.IntervalDays, 1)
	s.IntervalValue = 200000
	require.False(t, IsDue(s, t0))
	require.False(t, IsDue(s, t0.Add(time.Hour)))

	_, err := NextDue(s)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestNextDue(t *testing.T) {
	s := newSchedule(t, nil, models.IntervalHours, 3)
	next, err := NextDue(s)
	require.NoError(t, err)
	require.Equal(t, t0.Add(3*time.Hour), next)
}

func TestRecipients(t *testing.T) {
	ctx := context.Background()

	t.Run("targeted schedule pays only its target", func(t *testing.T) {
		target := "user-9"
		s := newSchedule(t, &target, models.IntervalMinutes, 1)
		lookup := &fakeMembers{}

		got, err := Recipients(ctx, s, lookup)
		require.NoError(t, err)
		require.Equal(t, []string{"user-9"}, got)
		require.Zero(t, lookup.calls)
	})

	t.Run("organization-wide schedule pays current members", func(t *testing.T) {
		s := newSchedule(t, nil, models.IntervalMinutes, 1)
		lookup := &fakeMembers{members: map[uuid.UUID][]*models.Member{
			s.OrgID: {
				models.NewMember(s.OrgID, "user-1", t0),
				models.NewMember(s.OrgID, "user-2", t0),
			},
		}}

		got, err := Recipients(ctx, s, lookup)
		require.NoError(t, err)
		require.Equal(t, []string{"user-1", "user-2"}, got)

		// membership is re-read every time
		lookup.members[s.OrgID] = lookup.members[s.OrgID][:1]
		got, err = Recipients(ctx, s, lookup)
		require.NoError(t, err)
		require.Equal(t, []string{"user-1"}, got)
		require.Equal(t, 2, lookup.calls)
	})

	t.Run("no members", func(t *testing.T) {
		s := newSchedule(t, nil, models.IntervalMinutes, 1)

		got, err := Recipients(ctx, s, &fakeMembers{})
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("lookup error", func(t *testing.T) {
		s := newSchedule(t, nil, models.IntervalMinutes, 1)
		boom := errors.New("boom")

		_, err := Recipients(ctx, s, &fakeMembers{err: boom})
		require.ErrorIs(t, err, boom)
	})
}
