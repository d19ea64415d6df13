package decorators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SC-Dawoony/ad-network-hub-sub000/adapters"
	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

type recordingEngine struct {
	network string
	op      string
	status  string
	calls   int
}

func (e *recordingEngine) RecordAdapterCall(network, op, status string, length time.Duration) {
	e.network = network
	e.op = op
	e.status = status
	e.calls++
}

func (e *recordingEngine) RecordReconcileBatch(tasks, matched int, length time.Duration) {}

func (e *recordingEngine) RecordRequest(endpoint string, status int, length time.Duration) {}

func TestRecordMetricsOK(t *testing.T) {
	me := &recordingEngine{}
	metered := RecordMetrics(&workingAdapter{}, me)

	metered.ListApps(context.Background(), adapters.Filter{})
	assert.Equal(t, "test", me.network)
	assert.Equal(t, "list_apps", me.op)
	assert.Equal(t, "ok", me.status)

	metered.CreateUnit(context.Background(), map[string]interface{}{}, "1")
	assert.Equal(t, "create_unit", me.op)
	assert.Equal(t, "ok", me.status)
	assert.Equal(t, 2, me.calls)
}

func TestRecordMetricsListFailure(t *testing.T) {
	me := &recordingEngine{}
	metered := RecordMetrics(&workingAdapter{listErr: &errortypes.TransportError{Message: "timeout"}}, me)

	metered.ListUnits(context.Background(), "1")
	assert.Equal(t, "list_units", me.op)
	assert.Equal(t, "transport_error", me.status)
}

func TestRecordMetricsCreateFailure(t *testing.T) {
	me := &recordingEngine{}
	metered := RecordMetrics(&workingAdapter{createErr: &errortypes.AuthError{Message: "expired"}}, me)

	metered.CreateApp(context.Background(), map[string]interface{}{})
	assert.Equal(t, "create_app", me.op)
	assert.Equal(t, "auth_error", me.status)
}

// Remote business codes must not become metric label values.
func TestRecordMetricsBucketsRemoteCodes(t *testing.T) {
	me := &recordingEngine{}
	metered := RecordMetrics(&rejectingAdapter{}, me)

	metered.CreateApp(context.Background(), map[string]interface{}{})
	assert.Equal(t, "upstream_reject", me.status)
}

type rejectingAdapter struct {
	workingAdapter
}

func (a *rejectingAdapter) CreateApp(ctx context.Context, payload map[string]interface{}) adapters.NormalizedResult {
	return adapters.UpstreamFailure("10001", "duplicate app name", nil)
}
