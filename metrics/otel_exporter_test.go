package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/delivery"
)

type staticCollector struct {
	m Metrics
}

func (c staticCollector) Collect(context.Context) (Metrics, error) { return c.m, nil }

func (c staticCollector) GetQueueLengths(context.Context) (map[string]int64, error) {
	return c.m.QueueLengths, nil
}

func (c staticCollector) GetStatusCounts(context.Context) (map[string]int64, error) {
	return c.m.StatusCounts, nil
}

func (c staticCollector) GetThroughput(context.Context) (ThroughputMetrics, error) {
	return c.m.Throughput, nil
}

func (c staticCollector) GetActiveWorkers(context.Context) (map[string][]WorkerInfo, error) {
	return c.m.Workers, nil
}

var (
	_ Collector         = (*RedisCollector)(nil)
	_ delivery.Observer = (*OTelExporter)(nil)
	_ webhook.Metrics   = (*OTelExporter)(nil)
)

func scrape(t *testing.T, oe *OTelExporter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	oe.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOTelExporter_Instruments(t *testing.T) {
	ctx := context.Background()
	oe, err := NewOTelExporter(nil)
	require.NoError(t, err)
	t.Cleanup(func() { oe.Shutdown(ctx) })

	oe.AttemptFinished(ctx, 1, 500, 120*time.Millisecond)
	oe.AttemptFinished(ctx, 2, 200, 80*time.Millisecond)
	oe.DispatchFinished(ctx, "discord", true)
	oe.DispatchFinished(ctx, "slack", false)

	out := scrape(t, oe)
	assert.Contains(t, out, "webhook_delivery_attempts_total")
	assert.Contains(t, out, `http_status_code="500"`)
	assert.Contains(t, out, "webhook_delivery_duration_seconds_bucket")
	assert.Contains(t, out, "webhook_dispatch_count_total")
	assert.Contains(t, out, `channel="discord"`)
	assert.Contains(t, out, `outcome="failed"`)
	assert.NotContains(t, out, "webhook_queue_length", "gauges need a collector")
}

func TestOTelExporter_ObservesCollector(t *testing.T) {
	ctx := context.Background()
	oe, err := NewOTelExporter(staticCollector{m: Metrics{
		QueueLengths: map[string]int64{"crm": 7},
		StatusCounts: map[string]int64{"pending": 7, "delivered": 3},
		Throughput:   ThroughputMetrics{LastMinute: 1, LastFiveMinutes: 2, LastFifteenMinutes: 3},
		Workers: map[string][]WorkerInfo{
			"crm": {{WorkerID: "w-1", DestinationID: "crm", Status: "idle"}},
		},
	}})
	require.NoError(t, err)
	t.Cleanup(func() { oe.Shutdown(ctx) })

	out := scrape(t, oe)
	assert.Contains(t, out, "webhook_queue_length")
	assert.Contains(t, out, `webhook_id="crm"`)
	assert.Contains(t, out, `delivery_status="delivered"`)
	assert.Contains(t, out, `time_window="15m"`)
	assert.Contains(t, out, "webhook_workers_active")
}

func TestOTelExporter_SeparateRegistries(t *testing.T) {
	first, err := NewOTelExporter(nil)
	require.NoError(t, err)
	second, err := NewOTelExporter(nil)
	require.NoError(t, err)

	first.DispatchFinished(context.Background(), "generic", true)

	assert.Contains(t, scrape(t, first), "webhook_dispatch_count_total")
	assert.NotContains(t, scrape(t, second), `channel="generic"`)
}
