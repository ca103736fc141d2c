package upstream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/building-energy-etl/internal/domain"
	"github.com/couchcryptid/building-energy-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(url string, timeout time.Duration) (*Client, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return NewClient(url, timeout, nil, metrics, slog.New(slog.NewTextHandler(io.Discard, nil))), metrics
}

func TestClient_Extract_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, contentTypeJSON, r.Header.Get("Accept"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"data":[{"nom_batiment":"École Pasteur","conso_elec_kwh":"15000"}]}`))
	}))
	defer srv.Close()

	c, metrics := testClient(srv.URL, 5*time.Second)
	raw, err := c.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "École Pasteur", raw[0][domain.FieldName])
	assert.Equal(t, "15000", raw[0][domain.FieldElectricity])
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("success")), 0)
}

func TestClient_Extract_DurationUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		clock.Advance(1500 * time.Millisecond)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := NewClient(srv.URL, 5*time.Second, clock, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.Extract(context.Background())
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, metrics.UpstreamDuration.Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
	assert.InDelta(t, 1.5, m.GetHistogram().GetSampleSum(), 1e-9)
}

func TestClient_Extract_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c, metrics := testClient(srv.URL, 5*time.Second)
	_, err := c.Extract(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "502")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("error")), 0)
}

func TestClient_Extract_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c, _ := testClient(srv.URL, 5*time.Second)
	_, err := c.Extract(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestClient_Extract_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.Extract(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestClient_Extract_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := testClient(url, time.Second)
	_, err := c.Extract(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
