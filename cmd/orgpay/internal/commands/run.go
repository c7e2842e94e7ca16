package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/orgpay/internal/dispatcher"
	httpops "github.com/wolfeidau/orgpay/internal/http"
	"github.com/wolfeidau/orgpay/internal/telemetry"
)

type RunCmd struct {
	Store      StoreFlags      `embed:""`
	Ledger     LedgerFlags     `embed:"" prefix:"ledger-"`
	Dispatcher DispatcherFlags `embed:""`

	HealthListen    string        `help:"address for the /healthz and /livez endpoints, disabled when empty" default:"" env:"ORGPAY_HEALTH_LISTEN"`
	Telemetry       bool          `help:"export metrics and traces over OTLP" default:"false" env:"ORGPAY_TELEMETRY"`
	ShutdownTimeout time.Duration `help:"time to wait for a running pass on shutdown" default:"30s" env:"ORGPAY_SHUTDOWN_TIMEOUT"`
}

func (c *RunCmd) Run(globals *Globals) error {
	log := setupLogger(globals)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting dispatcher")

	if c.Telemetry {
		shutdown, err := telemetry.InitTelemetry(ctx, "orgpay", globals.Version, telemetry.Config{})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := c.Store.open(ctx, log, false)
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := c.Ledger.build(log)
	if err != nil {
		return err
	}

	d, err := dispatcher.New(dispatcher.Config{
		Interval:      c.Dispatcher.Interval,
		Workers:       c.Dispatcher.Workers,
		CreditTimeout: c.Dispatcher.CreditTimeout,
		RunOnStart:    true,
	}, st, l, dispatcher.WithLogger(log))
	if err != nil {
		return err
	}

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	var srv *http.Server
	if c.HealthListen != "" {
		// a pass is overdue once three intervals go by without one completing
		mux := httpops.NewServeMux(d, 3*c.Dispatcher.Interval)
		srv = configureHTTPServer(c.HealthListen, httpops.RequestLogger(log)(mux))

		go func() {
			log.Info().Str("addr", c.HealthListen).Msg("Health endpoint listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Health endpoint failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shutdown health endpoint")
		}
	}

	if err := d.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("dispatcher did not stop cleanly: %w", err)
	}

	return nil
}

type PassCmd struct {
	Store      StoreFlags      `embed:""`
	Ledger     LedgerFlags     `embed:"" prefix:"ledger-"`
	Dispatcher DispatcherFlags `embed:""`
}

func (c *PassCmd) Run(globals *Globals) error {
	log := setupLogger(globals)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := c.Store.open(ctx, log, false)
	if err != nil {
		return err
	}
	defer st.Close()

	l, err := c.Ledger.build(log)
	if err != nil {
		return err
	}

	d, err := dispatcher.New(dispatcher.Config{
		Interval:      c.Dispatcher.Interval,
		Workers:       c.Dispatcher.Workers,
		CreditTimeout: c.Dispatcher.CreditTimeout,
	}, st, l, dispatcher.WithLogger(log))
	if err != nil {
		return err
	}

	res, err := d.RunPass(ctx)
	if err != nil {
		return err
	}

	log.Info().EmbedObject(res).Msg("Pass complete")

	return nil
}

type MigrateCmd struct {
	Store StoreFlags `embed:""`
}

func (c *MigrateCmd) Run(globals *Globals) error {
	log := setupLogger(globals)
	ctx := context.Background()

	if c.Store.StoreType == "memory" {
		return fmt.Errorf("nothing to migrate for the memory store")
	}

	st, err := c.Store.open(ctx, log, true)
	if err != nil {
		return err
	}
	defer st.Close()

	log.Info().Str("store", c.Store.StoreType).Msg("Schema is up to date")
	return nil
}
