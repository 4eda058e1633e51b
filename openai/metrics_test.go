package openai

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of chatkit_openai_requests_total{op,status}.
func counterValue(t *testing.T, reg *prometheus.Registry, op, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "chatkit_openai_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["op"] == op && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_RecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	var got captured
	client, _ := newTestServer(t, recordingHandler(t, &got, http.StatusOK, completionBody),
		WithMetrics(NewMetrics(reg)))

	for range 2 {
		_, err := client.Complete(context.Background(), userRequest("hi"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2.0, counterValue(t, reg, "complete", "200"))

	srv := &modelServer{}
	srv.status.Store(http.StatusInternalServerError)
	failing, _ := newTestServer(t, srv.handler(t), WithMetrics(NewMetrics(reg)))
	_, err := failing.ListModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "list_models", "500"))
}

func TestMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewMetrics(reg)
	second := NewMetrics(reg)

	assert.Same(t, first.requests, second.requests)
	assert.Same(t, first.latency, second.latency)
	assert.Len(t, second.Collectors(), 2)
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe("complete", "200", 0) })

	unregistered := NewMetrics(nil)
	assert.NotPanics(t, func() { unregistered.observe("complete", "200", 0) })
}
