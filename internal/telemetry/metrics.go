package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/orgservice"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Organization lifecycle metrics
	OrganizationsCreatedTotal metric.Int64Counter
	OrganizationsUpdatedTotal metric.Int64Counter
	OrganizationsDeletedTotal metric.Int64Counter
	DuplicateRejectionsTotal  metric.Int64Counter

	// Tenant collection metrics
	CollectionCleanupFailuresTotal metric.Int64Counter

	// Auth metrics
	LoginsTotal        metric.Int64Counter
	LoginFailuresTotal metric.Int64Counter

	// HTTP metrics
	HTTPRequestDuration metric.Float64Histogram
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

	m.OrganizationsCreatedTotal, _ = meter.Int64Counter(
		"orgservice.organizations.created.total",
		metric.WithDescription("Total number of organizations provisioned"),
		metric.WithUnit("{organization}"),
	)

	m.OrganizationsUpdatedTotal, _ = meter.Int64Counter(
		"orgservice.organizations.updated.total",
		metric.WithDescription("Total number of organization updates"),
		metric.WithUnit("{organization}"),
	)

	m.OrganizationsDeletedTotal, _ = meter.Int64Counter(
		"orgservice.organizations.deleted.total",
		metric.WithDescription("Total number of organizations deleted"),
		metric.WithUnit("{organization}"),
	)

	m.DuplicateRejectionsTotal, _ = meter.Int64Counter(
		"orgservice.organizations.duplicates.total",
		metric.WithDescription("Total number of create or update requests rejected as duplicates"),
		metric.WithUnit("{request}"),
	)

	m.CollectionCleanupFailuresTotal, _ = meter.Int64Counter(
		"orgservice.collections.cleanup_failures.total",
		metric.WithDescription("Total number of tenant collections that could not be dropped"),
		metric.WithUnit("{collection}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"orgservice.auth.logins.total",
		metric.WithDescription("Total number of successful admin logins"),
		metric.WithUnit("{login}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"orgservice.auth.login_failures.total",
		metric.WithDescription("Total number of rejected admin logins"),
		metric.WithUnit("{login}"),
	)

	m.HTTPRequestDuration, _ = meter.Float64Histogram(
		"orgservice.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}
