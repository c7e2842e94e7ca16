package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
	"github.com/wolfeidau/orgpay/internal/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "orgpay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestStore(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "orgpay.db")

	st, err := NewStore(ctx, path)
	require.NoError(t, err)
	org := storetest.CreateOrg(t, st, "Guild", "owner-1")
	require.NoError(t, st.Close())

	st, err = NewStore(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Organizations().Get(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, "Guild", got.Name)
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	require.Error(t, err)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStoreFromDB(db), mock
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO organizations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	err := st.WithTx(ctx, func(tx store.Store) error {
		org := models.NewOrganization("Guild", "owner-1", time.Now())
		if err := tx.Organizations().Create(ctx, org); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFailure(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err := st.WithTx(ctx, func(tx store.Store) error { return nil })
	require.ErrorContains(t, err, "failed to commit transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintErrorsMapToSentinels(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate organization", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO organizations").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

		err := st.Organizations().Create(ctx, models.NewOrganization("Guild", "owner-1", time.Now()))
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("member of missing organization", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO organization_members").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey})

		err := st.Members().Add(ctx, models.NewMember(uuid.Must(uuid.NewV7()), "user-1", time.Now()))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("duplicate member", func(t *testing.T) {
		st, mock := newMockStore(t)
		mock.ExpectExec("INSERT INTO organization_members").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

		err := st.Members().Add(ctx, models.NewMember(uuid.Must(uuid.NewV7()), "user-1", time.Now()))
		require.ErrorIs(t, err, store.ErrMemberAlreadyExists)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		st, mock := newMockStore(t)
		busy := sqlite3.Error{Code: sqlite3.ErrBusy}
		mock.ExpectExec("UPDATE payment_schedules").WillReturnError(busy)

		err := st.Schedules().AdvanceLastPaid(ctx, uuid.Must(uuid.NewV7()), time.Now())
		require.ErrorContains(t, err, "failed to advance last paid")
		require.NotErrorIs(t, err, store.ErrScheduleNotFound)
	})
}

func TestAdvanceLastPaid_NoRowsIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec("UPDATE payment_schedules").WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.Schedules().AdvanceLastPaid(context.Background(), uuid.Must(uuid.NewV7()), time.Now())
	require.ErrorIs(t, err, store.ErrScheduleNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanSchedule_RejectsUnknownUnit(t *testing.T) {
	st, mock := newMockStore(t)
	id := uuid.Must(uuid.NewV7())

	rows := sqlmock.NewRows([]string{
		"schedule_id", "org_id", "target_user_id", "amount",
		"interval_unit", "interval_value", "last_paid_at", "created_at",
	}).AddRow(
		id.String(), uuid.Must(uuid.NewV7()).String(), nil, int64(10),
		"fortnights", int64(1), time.Now().UnixNano(), time.Now().UnixNano(),
	)
	mock.ExpectQuery("SELECT (.+) FROM payment_schedules").WillReturnRows(rows)

	_, err := st.Schedules().Get(context.Background(), id)
	require.ErrorIs(t, err, models.ErrInvalidArgument)
}
