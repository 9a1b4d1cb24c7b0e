package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := &RecorderAPI{}
	scoped := NewScopedAPI("scraper", recorder)

	scoped.ReportBroken("scraper.fetch", "err")
	scoped.ReportWarning("scraper.row", 1)
	scoped.ReportDebug("fetching")
	scoped.ReportCount("rows", 3)

	broken := recorder.Reports("broken")
	require.Len(t, broken, 1)
	require.Equal(t, "scraper: scraper.fetch", broken[0].ID)
	require.Equal(t, []any{"err"}, broken[0].Params)

	require.Equal(t, "scraper: scraper.row", recorder.Reports("warning")[0].ID)
	require.Equal(t, "scraper: fetching", recorder.Reports("debug")[0].ID)

	counts := recorder.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	recorder := &RecorderAPI{}
	client := resty.New()
	InstrumentResty(client, recorder)

	_, err := client.R().Get(server.URL)
	require.NoError(t, err)

	debug := recorder.Reports("debug")
	require.Len(t, debug, 2)
	require.Equal(t, report_resty_request, debug[0].ID)
	require.Equal(t, report_resty_response, debug[1].ID)
	require.Equal(t, uint64(1), debug[0].Params[0])

	server.Close()
	_, err = client.R().Get(server.URL)
	require.Error(t, err)
	require.Len(t, recorder.Reports("broken"), 1)
}

func TestEndpointEnabled(t *testing.T) {
	testCases := []struct {
		endpoint  Endpoint
		enabled   bool
		transport string
	}{
		{endpoint: Endpoint{}, enabled: false, transport: "http"},
		{endpoint: Endpoint{Http: "http://localhost:4318"}, enabled: true, transport: "http"},
		{endpoint: Endpoint{Grpc: "http://localhost:4317"}, enabled: true, transport: "grpc"},
		{endpoint: Endpoint{Grpc: "http://localhost:4317", Http: "http://localhost:4318"}, enabled: true, transport: "grpc"},
	}
	for _, test := range testCases {
		require.Equal(t, test.enabled, test.endpoint.Enabled())
		require.Equal(t, test.transport, test.endpoint.transport())
	}
}

func TestSetupDisabled(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Empty(t, tel.shutdown)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	require.False(t, ConfigFromEnv().Traces.Enabled())

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	config := ConfigFromEnv()
	require.Equal(t, "http://collector:4318", config.Traces.Http)
	require.Equal(t, "http://collector:4318", config.Metrics.Http)
}

func TestShutdownJoinsErrors(t *testing.T) {
	failure := errors.New("flush failed")
	calls := 0
	tel := Telemetry{shutdown: []func(ctx context.Context) error{
		func(ctx context.Context) error { calls++; return failure },
		func(ctx context.Context) error { calls++; return nil },
	}}

	err := tel.Shutdown(context.Background())
	require.ErrorIs(t, err, failure)
	require.Equal(t, 2, calls)
}
