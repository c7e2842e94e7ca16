package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
	"github.com/wolfeidau/orgpay/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return NewStore()
	})
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	org := storetest.CreateOrg(t, st, "Guild", "owner-1")

	target := "user-1"
	s, err := models.NewPaymentSchedule(org.OrgID, &target, 10, models.IntervalHours, 1, time.Now())
	require.NoError(t, err)
	require.NoError(t, st.Schedules().Create(ctx, s))

	got, err := st.Schedules().Get(ctx, s.ScheduleID)
	require.NoError(t, err)
	*got.TargetUserID = "user-2"
	got.Amount = 999

	again, err := st.Schedules().Get(ctx, s.ScheduleID)
	require.NoError(t, err)
	require.Equal(t, "user-1", *again.TargetUserID)
	require.Equal(t, int64(10), again.Amount)
}

func TestStore_ConcurrentAdvance(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	org := storetest.CreateOrg(t, st, "Guild", "owner-1")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := models.NewPaymentSchedule(org.OrgID, nil, 10, models.IntervalHours, 1, base)
	require.NoError(t, err)
	require.NoError(t, st.Schedules().Create(ctx, s))

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = st.Schedules().AdvanceLastPaid(ctx, s.ScheduleID, base.Add(time.Duration(i)*time.Second))
		}(i)
	}
	wg.Wait()

	got, err := st.Schedules().Get(ctx, s.ScheduleID)
	require.NoError(t, err)
	require.True(t, base.Add(50*time.Second).Equal(got.LastPaidAt))
}

func TestStore_WithTxReadsNotIsolated(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	org := storetest.CreateOrg(t, st, "Guild", "owner-1")

	errRollback := errors.New("rollback")
	err := st.WithTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Members().Add(ctx, models.NewMember(org.OrgID, "U1", time.Now())))

		// visible outside the transaction before it finishes
		members, err := st.Members().ListByOrg(ctx, org.OrgID)
		require.NoError(t, err)
		require.Len(t, members, 1)

		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	members, err := st.Members().ListByOrg(ctx, org.OrgID)
	require.NoError(t, err)
	require.Empty(t, members)
}
