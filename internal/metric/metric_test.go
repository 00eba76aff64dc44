package metric

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/annotation"
)

func TestMetrics_CountsEngineEvents(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.AnnotationApplied("filter", annotation.TargetMethod)
	m.AnnotationApplied("filter", annotation.TargetMethod)
	m.AnnotationApplied("script", annotation.TargetField)
	m.CapabilitySkipped("script")
	m.AttachFinished("pkg.T", time.Millisecond, nil)
	m.AttachFinished("pkg.T", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.annotationsApplied.WithLabelValues("filter", "method")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.annotationsApplied.WithLabelValues("script", "field")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.capabilitySkips.WithLabelValues("script")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attaches.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attaches.WithLabelValues(ResultError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.attachDuration))
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.CapabilitySkipped("stylesheet")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `hookbind_capability_skips_total{kind="stylesheet"} 1`)
}
