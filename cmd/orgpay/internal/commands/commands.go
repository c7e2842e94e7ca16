package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/ledger"
	"github.com/wolfeidau/orgpay/internal/logger"
	"github.com/wolfeidau/orgpay/internal/store"
	memorystore "github.com/wolfeidau/orgpay/internal/store/memory"
	postgresstore "github.com/wolfeidau/orgpay/internal/store/postgres"
	sqlitestore "github.com/wolfeidau/orgpay/internal/store/sqlite"
)

type Globals struct {
	Debug   bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// setupLogger configures the global logger used by the stores and returns it.
func setupLogger(globals *Globals) zerolog.Logger {
	log := logger.Setup(globals.Debug)
	zlog.Logger = log
	return log
}

type StoreFlags struct {
	StoreType     string             `help:"store type (memory, postgres or sqlite)" default:"memory" env:"ORGPAY_STORE_TYPE" enum:"memory,postgres,sqlite"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
	SQLitePath    string             `help:"path to the SQLite database file" default:"orgpay.db" env:"ORGPAY_SQLITE_PATH"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns            int32 `help:"maximum number of connections in pool" default:"10"`
	MinConns            int32 `help:"minimum number of connections in pool" default:"1"`
	MaxConnLifetime     int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime     int32 `help:"maximum connection idle time in seconds" default:"1800"`
	ConnectRetryTimeout int32 `help:"seconds to keep retrying the initial connection" default:"30"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"ORGPAY_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) storeConfig(autoMigrate bool) *postgresstore.StoreConfig {
	return &postgresstore.StoreConfig{
		Pool: postgresstore.PoolConfig{
			ConnString:          s.ConnString,
			MaxConns:            s.MaxConns,
			MinConns:            s.MinConns,
			MaxConnLifetime:     s.MaxConnLifetime,
			MaxConnIdleTime:     s.MaxConnIdleTime,
			ConnectRetryTimeout: s.ConnectRetryTimeout,
		},
		AutoMigrate: autoMigrate || s.AutoMigrate,
	}
}

// open creates the configured store. migrate forces schema migration for stores that support it.
func (s *StoreFlags) open(ctx context.Context, log zerolog.Logger, migrate bool) (store.Store, error) {
	switch s.StoreType {
	case "postgres":
		if err := s.PostgresStore.Validate(); err != nil {
			return nil, err
		}
		st, err := postgresstore.NewStore(ctx, s.PostgresStore.storeConfig(migrate))
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		log.Info().Msg("Using PostgreSQL store")
		return st, nil

	case "sqlite":
		st, err := sqlitestore.NewStore(ctx, s.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		log.Info().Str("path", s.SQLitePath).Msg("Using SQLite store")
		return st, nil

	default:
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return memorystore.NewStore(), nil
	}
}

type LedgerFlags struct {
	Type    string        `help:"ledger type (http or memory)" default:"http" env:"ORGPAY_LEDGER_TYPE" enum:"http,memory"`
	URL     string        `help:"points ledger base URL" default:"http://localhost:8081" env:"ORGPAY_LEDGER_URL"`
	Token   string        `help:"points ledger bearer token" env:"ORGPAY_LEDGER_TOKEN"`
	Timeout time.Duration `help:"HTTP timeout for ledger requests" default:"30s" env:"ORGPAY_LEDGER_TIMEOUT"`
}

func (l *LedgerFlags) build(log zerolog.Logger) (ledger.Ledger, error) {
	if l.Type == "memory" {
		log.Warn().Msg("Using in-memory ledger, credits are not sent anywhere")
		return ledger.NewMemory(), nil
	}

	client, err := ledger.NewHTTPClient(ledger.Config{
		BaseURL: l.URL,
		Token:   l.Token,
		Timeout: l.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	log.Info().Str("url", l.URL).Msg("Using HTTP ledger")
	return client, nil
}

type DispatcherFlags struct {
	Interval      time.Duration `help:"time between dispatcher passes" default:"60s" env:"ORGPAY_INTERVAL"`
	Workers       int           `help:"number of schedules processed concurrently" default:"4" env:"ORGPAY_WORKERS"`
	CreditTimeout time.Duration `help:"timeout for a single ledger credit" default:"10s" env:"ORGPAY_CREDIT_TIMEOUT"`
}
