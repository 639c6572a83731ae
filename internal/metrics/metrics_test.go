package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	p := NewPrometheus()

	p.RecordFetchAttempt("success")
	p.RecordFetchAttempt("retryable")
	p.RecordFetchAttempt("retryable")
	p.RecordCacheLookup(true)
	p.RecordCacheLookup(false)
	p.RecordCacheLookup(false)
	p.RecordRun(250, 4, 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.fetchAttempts.WithLabelValues("retryable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 250.0, testutil.ToFloat64(p.tickers))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.anomalies))
	assert.Equal(t, 12.0, testutil.ToFloat64(p.warnings))
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPrometheus()
	p.RecordRun(10, 1, 0)

	require.NoError(t, p.Push(context.Background(), srv.URL, "detector"))
	assert.True(t, strings.HasSuffix(gotPath, "/metrics/job/detector"), gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewPrometheus().Push(context.Background(), srv.URL, "detector")
	assert.Error(t, err)
}
