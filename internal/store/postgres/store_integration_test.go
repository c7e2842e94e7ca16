//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
	"github.com/wolfeidau/orgpay/internal/store/storetest"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) *Store {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Create store with auto-migrate enabled
	cfg := &StoreConfig{
		Pool:        PoolConfig{ConnString: connString},
		AutoMigrate: true,
	}

	st, err := NewStore(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = st.Close()
		_ = container.Terminate(ctx)
	})

	return st
}

func TestIntegration_Store(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)

	storetest.Run(t, func(t *testing.T) store.Store {
		_, err := st.pool.Exec(ctx, `TRUNCATE organizations CASCADE`)
		require.NoError(t, err)
		return st
	})
}

func TestIntegration_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)

	require.NoError(t, RunMigrations(ctx, st.pool))

	var count int
	err := st.pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestIntegration_ConcurrentAdvance(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)

	org := storetest.CreateOrg(t, st, "Guild", "owner-1")
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := models.NewPaymentSchedule(org.OrgID, nil, 10, models.IntervalMinutes, 1, base)
	require.NoError(t, err)
	require.NoError(t, st.Schedules().Create(ctx, s))

	const writers = 20
	errCh := make(chan error, writers)
	for i := 1; i <= writers; i++ {
		go func(i int) {
			errCh <- st.Schedules().AdvanceLastPaid(ctx, s.ScheduleID, base.Add(time.Duration(i)*time.Second))
		}(i)
	}
	for range writers {
		require.NoError(t, <-errCh)
	}

	got, err := st.Schedules().Get(ctx, s.ScheduleID)
	require.NoError(t, err)
	require.True(t, base.Add(writers*time.Second).Equal(got.LastPaidAt))
}
