package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/orgpay"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Dispatcher pass metrics
	PassesTotal       metric.Int64Counter
	PassErrorsTotal   metric.Int64Counter
	PassDuration      metric.Float64Histogram
	SchedulesDue      metric.Int64Counter
	SchedulesAdvanced metric.Int64Counter
	SchedulesEmpty    metric.Int64Counter

	// Ledger metrics
	CreditsTotal        metric.Int64Counter
	CreditErrorsTotal   metric.Int64Counter
	CreditDuration      metric.Float64Histogram
	PointsCreditedTotal metric.Int64Counter

	// Recovered panics while processing a schedule
	PanicsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Dispatcher pass metrics
	m.PassesTotal, _ = meter.Int64Counter(
		"orgpay.dispatcher.passes.total",
		metric.WithDescription("Total number of dispatcher passes"),
		metric.WithUnit("{pass}"),
	)

	m.PassErrorsTotal, _ = meter.Int64Counter(
		"orgpay.dispatcher.passes.errors.total",
		metric.WithDescription("Total number of dispatcher passes that failed to list schedules"),
		metric.WithUnit("{error}"),
	)

	m.PassDuration, _ = meter.Float64Histogram(
		"orgpay.dispatcher.pass.duration",
		metric.WithDescription("Duration of dispatcher passes"),
		metric.WithUnit("ms"),
	)

	m.SchedulesDue, _ = meter.Int64Counter(
		"orgpay.schedules.due.total",
		metric.WithDescription("Total number of schedules found due"),
		metric.WithUnit("{schedule}"),
	)

	m.SchedulesAdvanced, _ = meter.Int64Counter(
		"orgpay.schedules.advanced.total",
		metric.WithDescription("Total number of schedules whose last paid time was advanced"),
		metric.WithUnit("{schedule}"),
	)

	m.SchedulesEmpty, _ = meter.Int64Counter(
		"orgpay.schedules.empty.total",
		metric.WithDescription("Total number of due schedules with no recipients"),
		metric.WithUnit("{schedule}"),
	)

	// Ledger metrics
	m.CreditsTotal, _ = meter.Int64Counter(
		"orgpay.ledger.credits.total",
		metric.WithDescription("Total number of ledger credit attempts"),
		metric.WithUnit("{credit}"),
	)

	m.CreditErrorsTotal, _ = meter.Int64Counter(
		"orgpay.ledger.credits.errors.total",
		metric.WithDescription("Total number of failed ledger credits"),
		metric.WithUnit("{error}"),
	)

	m.CreditDuration, _ = meter.Float64Histogram(
		"orgpay.ledger.credit.duration",
		metric.WithDescription("Duration of ledger credit calls"),
		metric.WithUnit("ms"),
	)

	m.PointsCreditedTotal, _ = meter.Int64Counter(
		"orgpay.ledger.points.total",
		metric.WithDescription("Total number of points successfully credited"),
		metric.WithUnit("{point}"),
	)

	m.PanicsTotal, _ = meter.Int64Counter(
		"orgpay.dispatcher.panics.total",
		metric.WithDescription("Total number of recovered panics while processing schedules"),
		metric.WithUnit("{panic}"),
	)

	return m
}
