// Package storetest holds behaviour tests shared by every store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// Factory returns a new, empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

var baseTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Run exercises the store.Store contract against the implementation returned by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("organizations", func(t *testing.T) { testOrganizations(t, newStore) })
	t.Run("members", func(t *testing.T) { testMembers(t, newStore) })
	t.Run("schedules", func(t *testing.T) { testSchedules(t, newStore) })
	t.Run("cascade delete", func(t *testing.T) { testCascadeDelete(t, newStore) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore) })
}

// CreateOrg stores a new organization and returns it.
func CreateOrg(t *testing.T, st store.Store, name, owner string) *models.Organization {
	t.Helper()
	org := models.NewOrganization(name, owner, baseTime)
	require.NoError(t, st.Organizations().Create(context.Background(), org))
	return org
}

// AddMember stores a new membership and returns it.
func AddMember(t *testing.T, st store.Store, orgID uuid.UUID, userID string) *models.Member {
	t.Helper()
	member := models.NewMember(orgID, userID, baseTime)
	require.NoError(t, st.Members().Add(context.Background(), member))
	return member
}

func testOrganizations(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")

		got, err := st.Organizations().Get(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, org.Name, got.Name)
		require.Equal(t, org.OwnerID, got.OwnerID)
		require.True(t, org.CreatedAt.Equal(got.CreatedAt))

		byName, err := st.Organizations().GetByName(ctx, "Guild")
		require.NoError(t, err)
		require.Equal(t, org.OrgID, byName.OrgID)
	})

	t.Run("duplicate name returns already exists", func(t *testing.T) {
		st := newStore(t)
		CreateOrg(t, st, "Guild", "owner-1")

		err := st.Organizations().Create(ctx, models.NewOrganization("Guild", "owner-2", baseTime))
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		st := newStore(t)

		_, err := st.Organizations().Get(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)

		_, err = st.Organizations().GetByName(ctx, "nope")
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("delete missing returns not found", func(t *testing.T) {
		st := newStore(t)

		err := st.Organizations().Delete(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("list", func(t *testing.T) {
		st := newStore(t)
		CreateOrg(t, st, "Alpha", "owner-1")
		CreateOrg(t, st, "Beta", "owner-2")

		orgs, err := st.Organizations().List(ctx)
		require.NoError(t, err)
		require.Len(t, orgs, 2)
	})
}

func testMembers(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("add get list remove", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")
		AddMember(t, st, org.OrgID, "user-1")
		AddMember(t, st, org.OrgID, "user-2")

		got, err := st.Members().Get(ctx, org.OrgID, "user-1")
		require.NoError(t, err)
		require.Equal(t, "user-1", got.UserID)

		members, err := st.Members().ListByOrg(ctx, org.OrgID)
		require.NoError(t, err)
		require.Len(t, members, 2)

		require.NoError(t, st.Members().Remove(ctx, org.OrgID, "user-1"))

		_, err = st.Members().Get(ctx, org.OrgID, "user-1")
		require.ErrorIs(t, err, store.ErrMemberNotFound)

		members, err = st.Members().ListByOrg(ctx, org.OrgID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		require.Equal(t, "user-2", members[0].UserID)
	})

	t.Run("duplicate membership returns already exists", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")
		AddMember(t, st, org.OrgID, "user-1")

		err := st.Members().Add(ctx, models.NewMember(org.OrgID, "user-1", baseTime))
		require.ErrorIs(t, err, store.ErrMemberAlreadyExists)
	})

	t.Run("same user in two organizations", func(t *testing.T) {
		st := newStore(t)
		a := CreateOrg(t, st, "Alpha", "owner-1")
		b := CreateOrg(t, st, "Beta", "owner-1")
		AddMember(t, st, a.OrgID, "user-1")
		AddMember(t, st, b.OrgID, "user-1")
	})

	t.Run("add to missing organization returns not found", func(t *testing.T) {
		st := newStore(t)

		err := st.Members().Add(ctx, models.NewMember(uuid.Must(uuid.NewV7()), "user-1", baseTime))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("remove non-member returns not found", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")

		err := st.Members().Remove(ctx, org.OrgID, "user-1")
		require.ErrorIs(t, err, store.ErrMemberNotFound)
	})

	t.Run("list empty organization", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")

		members, err := st.Members().ListByOrg(ctx, org.OrgID)
		require.NoError(t, err)
		require.Empty(t, members)
	})
}

func testSchedules(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create get list", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")
		target := "user-1"

		targeted, err := models.NewPaymentSchedule(org.OrgID, &target, 100, models.IntervalMinutes, 1, baseTime)
		require.NoError(t, err)
		require.NoError(t, st.Schedules().Create(ctx, targeted))

		orgWide, err := models.NewPaymentSchedule(org.OrgID, nil, 50, models.IntervalDays, 2, baseTime.Add(time.Second))
		require.NoError(t, err)
		require.NoError(t, st.Schedules().Create(ctx, orgWide))

		got, err := st.Schedules().Get(ctx, targeted.ScheduleID)
		require.NoError(t, err)
		require.Equal(t, int64(100), got.Amount)
		require.Equal(t, models.IntervalMinutes, got.IntervalUnit)
		require.Equal(t, int64(1), got.IntervalValue)
		require.NotNil(t, got.TargetUserID)
		require.Equal(t, "user-1", *got.TargetUserID)
		require.True(t, baseTime.Equal(got.LastPaidAt))

		got, err = st.Schedules().Get(ctx, orgWide.ScheduleID)
		require.NoError(t, err)
		require.Nil(t, got.TargetUserID)

		all, err := st.Schedules().List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)

		byOrg, err := st.Schedules().ListByOrg(ctx, org.OrgID)
		require.NoError(t, err)
		require.Len(t, byOrg, 2)
	})

	t.Run("create for missing organization returns not found", func(t *testing.T) {
		st := newStore(t)

		s, err := models.NewPaymentSchedule(uuid.Must(uuid.NewV7()), nil, 1, models.IntervalHours, 1, baseTime)
		require.NoError(t, err)

		err = st.Schedules().Create(ctx, s)
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("advance last paid is monotonic", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")
		s, err := models.NewPaymentSchedule(org.OrgID, nil, 1, models.IntervalHours, 1, baseTime)
		require.NoError(t, err)
		require.NoError(t, st.Schedules().Create(ctx, s))

		later := baseTime.Add(2 * time.Hour)
		require.NoError(t, st.Schedules().AdvanceLastPaid(ctx, s.ScheduleID, later))

		got, err := st.Schedules().Get(ctx, s.ScheduleID)
		require.NoError(t, err)
		require.True(t, later.Equal(got.LastPaidAt))

		// An older timestamp must not move it backwards
		require.NoError(t, st.Schedules().AdvanceLastPaid(ctx, s.ScheduleID, baseTime.Add(time.Hour)))

		got, err = st.Schedules().Get(ctx, s.ScheduleID)
		require.NoError(t, err)
		require.True(t, later.Equal(got.LastPaidAt))
	})

	t.Run("advance missing schedule returns not found", func(t *testing.T) {
		st := newStore(t)

		err := st.Schedules().AdvanceLastPaid(ctx, uuid.Must(uuid.NewV7()), baseTime)
		require.ErrorIs(t, err, store.ErrScheduleNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		st := newStore(t)
		org := CreateOrg(t, st, "Guild", "owner-1")
		s, err := models.NewPaymentSchedule(org.OrgID, nil, 1, models.IntervalHours, 1, baseTime)
		require.NoError(t, err)
		require.NoError(t, st.Schedules().Create(ctx, s))

		require.NoError(t, st.Schedules().Delete(ctx, s.ScheduleID))

		_, err = st.Schedules().Get(ctx, s.ScheduleID)
		require.ErrorIs(t, err, store.ErrScheduleNotFound)

		err = st.Schedules().Delete(ctx, s.ScheduleID)
		require.ErrorIs(t, err, store.ErrScheduleNotFound)
	})
}

func testCascadeDelete(t *testing.T, newStore Factory) {
	ctx := context.Background()
	st := newStore(t)

	org := CreateOrg(t, st, "Guild", "owner-1")
	other := CreateOrg(t, st, "Other", "owner-2")
	AddMember(t, st, org.OrgID, "user-1")
	AddMember(t, st, org.OrgID, "user-2")
	AddMember(t, st, other.OrgID, "user-1")

	s, err := models.NewPaymentSchedule(org.OrgID, nil, 10, models.IntervalMinutes, 5, baseTime)
	require.NoError(t, err)
	require.NoError(t, st.Schedules().Create(ctx, s))

	keep, err := models.NewPaymentSchedule(other.OrgID, nil, 10, models.IntervalMinutes, 5, baseTime)
	require.NoError(t, err)
	require.NoError(t, st.Schedules().Create(ctx, keep))

	require.NoError(t, st.Organizations().Delete(ctx, org.OrgID))

	_, err = st.Organizations().Get(ctx, org.OrgID)
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)

	members, err := st.Members().ListByOrg(ctx, org.OrgID)
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = st.Members().Get(ctx, org.OrgID, "user-1")
	require.ErrorIs(t, err, store.ErrMemberNotFound)

	schedules, err := st.Schedules().ListByOrg(ctx, org.OrgID)
	require.NoError(t, err)
	require.Empty(t, schedules)

	_, err = st.Schedules().Get(ctx, s.ScheduleID)
	require.ErrorIs(t, err, store.ErrScheduleNotFound)

	// The other organization is untouched
	members, err = st.Members().ListByOrg(ctx, other.OrgID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	_, err = st.Schedules().Get(ctx, keep.ScheduleID)
	require.NoError(t, err)
}

func testTransactions(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		st := newStore(t)

		var org *models.Organization
		err := st.WithTx(ctx, func(tx store.Store) error {
			org = models.NewOrganization("Guild", "owner-1", baseTime)
			if err := tx.Organizations().Create(ctx, org); err != nil {
				return err
			}
			return tx.Members().Add(ctx, models.NewMember(org.OrgID, "user-1", baseTime))
		})
		require.NoError(t, err)

		_, err = st.Members().Get(ctx, org.OrgID, "user-1")
		require.NoError(t, err)
	})

	t.Run("rollback on error", func(t *testing.T) {
		st := newStore(t)
		boom := errors.New("boom")

		err := st.WithTx(ctx, func(tx store.Store) error {
			org := models.NewOrganization("Guild", "owner-1", baseTime)
			if err := tx.Organizations().Create(ctx, org); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = st.Organizations().GetByName(ctx, "Guild")
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("nested transaction reuses outer", func(t *testing.T) {
		st := newStore(t)

		err := st.WithTx(ctx, func(tx store.Store) error {
			return tx.WithTx(ctx, func(inner store.Store) error {
				return inner.Organizations().Create(ctx, models.NewOrganization("Guild", "owner-1", baseTime))
			})
		})
		require.NoError(t, err)

		_, err = st.Organizations().GetByName(ctx, "Guild")
		require.NoError(t, err)
	})
}
