package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Credit(WithReference(ctx, "ref-1"), "user-1", 100))
	require.NoError(t, m.Credit(ctx, "user-1", 50))

	unavailable := errors.New("unavailable")
	m.FailFor("user-2", unavailable)
	err := m.Credit(ctx, "user-2", 10)
	require.ErrorIs(t, err, ErrCreditFailed)
	require.ErrorIs(t, err, unavailable)

	require.Equal(t, int64(150), m.Balance("user-1"))
	require.Equal(t, int64(0), m.Balance("user-2"))
	require.Equal(t, 1, m.Attempts("user-2"))
	require.Equal(t, 3, m.TotalAttempts())

	credits := m.Credits()
	require.Len(t, credits, 2)
	require.Equal(t, "ref-1", credits[0].Reference)

	m.Recover("user-2")
	require.NoError(t, m.Credit(ctx, "user-2", 10))
	require.Equal(t, int64(10), m.Balance("user-2"))
}

func TestMemory_FailFunc(t *testing.T) {
	m := NewMemory()
	m.FailFunc = func(accountID string, amount int64) error {
		if amount > 100 {
			return errors.New("over limit")
		}
		return nil
	}

	require.ErrorIs(t, m.Credit(context.Background(), "user-1", 101), ErrCreditFailed)
	require.NoError(t, m.Credit(context.Background(), "user-1", 100))
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Credit(ctx, "user-1", 1)
	require.ErrorIs(t, err, ErrCreditFailed)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, m.Attempts("user-1"))
}
