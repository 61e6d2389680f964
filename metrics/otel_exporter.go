package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

/* OTelExporter provides OpenTelemetry metrics in Prometheus format
 * Observable gauges read the delivery log through the Collector; counters and
 * the duration histogram are fed directly by the delivery engine and the dispatcher
 */
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prom.Registry
	collector     Collector

	meter              metric.Meter
	queueLengthGauge   metric.Int64ObservableGauge
	statusCountGauge   metric.Int64ObservableGauge
	throughputGauge    metric.Int64ObservableGauge
	activeWorkersGauge metric.Int64ObservableGauge
	attempts           metric.Int64Counter
	duration           metric.Float64Histogram
	dispatches         metric.Int64Counter
}

// NewOTelExporter creates an exporter; collector may be nil when no delivery log is configured
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prom.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"webhook-dispatch",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.attempts, err = oe.meter.Int64Counter(
		"webhook.delivery.attempts",
		metric.WithDescription("HTTP attempts made by the delivery engine"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return fmt.Errorf("creating attempts counter: %w", err)
	}

	oe.duration, err = oe.meter.Float64Histogram(
		"webhook.delivery.duration",
		metric.WithDescription("Duration of a single delivery attempt"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	oe.dispatches, err = oe.meter.Int64Counter(
		"webhook.dispatch.count",
		metric.WithDescription("Finished dispatches by channel and outcome"),
		metric.WithUnit("{dispatches}"),
	)
	if err != nil {
		return fmt.Errorf("creating dispatch counter: %w", err)
	}

	if oe.collector == nil {
		return nil
	}

	oe.queueLengthGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.queue.length",
		metric.WithDescription("Number of queued deliveries per destination"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeQueueLengths),
	)
	if err != nil {
		return fmt.Errorf("creating queue length gauge: %w", err)
	}

	oe.statusCountGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.status.count",
		metric.WithDescription("Number of deliveries by status"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status count gauge: %w", err)
	}

	oe.throughputGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.throughput",
		metric.WithDescription("Number of deliveries completed over time window"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeThroughput),
	)
	if err != nil {
		return fmt.Errorf("creating throughput gauge: %w", err)
	}

	oe.activeWorkersGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.workers.active",
		metric.WithDescription("Number of active workers per destination"),
		metric.WithUnit("{workers}"),
		metric.WithInt64Callback(oe.observeActiveWorkers),
	)
	if err != nil {
		return fmt.Errorf("creating active workers gauge: %w", err)
	}

	return nil
}

// AttemptFinished records one HTTP attempt; status is 0 on transport errors
func (oe *OTelExporter) AttemptFinished(ctx context.Context, attempt int, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.Int("http.status_code", status))
	oe.attempts.Add(ctx, 1, attrs)
	oe.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// DispatchFinished records the outcome of one dispatch
func (oe *OTelExporter) DispatchFinished(ctx context.Context, channel string, delivered bool) {
	outcome := "failed"
	if delivered {
		outcome = "delivered"
	}
	oe.dispatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("outcome", outcome),
	))
}

func (oe *OTelExporter) observeQueueLengths(ctx context.Context, observer metric.Int64Observer) error {
	queueLengths, err := oe.collector.GetQueueLengths(ctx)
	if err != nil {
		return err
	}

	for id, length := range queueLengths {
		observer.Observe(length, metric.WithAttributes(
			attribute.String("webhook.id", id),
		))
	}

	return nil
}

func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	statusCounts, err := oe.collector.GetStatusCounts(ctx)
	if err != nil {
		return err
	}

	for status, count := range statusCounts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("delivery.status", status),
		))
	}

	return nil
}

func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	throughput, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}

	observer.Observe(throughput.LastMinute, metric.WithAttributes(
		attribute.String("time.window", "1m"),
	))
	observer.Observe(throughput.LastFiveMinutes, metric.WithAttributes(
		attribute.String("time.window", "5m"),
	))
	observer.Observe(throughput.LastFifteenMinutes, metric.WithAttributes(
		attribute.String("time.window", "15m"),
	))

	return nil
}

func (oe *OTelExporter) observeActiveWorkers(ctx context.Context, observer metric.Int64Observer) error {
	workers, err := oe.collector.GetActiveWorkers(ctx)
	if err != nil {
		return err
	}

	for id, list := range workers {
		observer.Observe(int64(len(list)), metric.WithAttributes(
			attribute.String("webhook.id", id),
		))
	}

	return nil
}

// Handler returns the Prometheus scrape handler
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
