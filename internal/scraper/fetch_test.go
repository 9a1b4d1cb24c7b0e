package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dividend-backend/internal/components/telemetry"
	"dividend-backend/pkg/htmlutil"

	"github.com/stretchr/testify/require"
)

func TestRestyFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("user-agent") != "dividend-test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<html><body><h1>Acme Inc (ACM)</h1></body></html>`))
	}))
	defer server.Close()

	tel := &telemetry.RecorderAPI{}
	fetcher := NewRestyFetcher(
		WithFetcherTelemetryAPI(tel),
		WithUserAgent("dividend-test"),
	)

	doc, err := fetcher.Fetch(context.Background(), server.URL+"/quote")
	require.NoError(t, err)
	headings := doc.ElementsByTag("h1")
	require.Len(t, headings, 1)
	require.Equal(t, "Acme Inc (ACM)", headings[0].Text())

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.Equal(t, server.URL+"/missing", fetchErr.URI)
	require.Len(t, tel.Reports("warning"), 1)

	server.Close()

	_, err = fetcher.Fetch(context.Background(), server.URL+"/quote")
	require.True(t, errors.As(err, &fetchErr))
	require.Zero(t, fetchErr.StatusCode)
	require.NotNil(t, errors.Unwrap(fetchErr))
}

func TestFetcherFunc(t *testing.T) {
	var called string
	fetcher := FetcherFunc(func(ctx context.Context, uri string) (htmlutil.Document, error) {
		called = uri
		return htmlutil.ParseString("<html></html>")
	})
	_, err := fetcher.Fetch(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com", called)
}

type dumpOutput map[string]string

func (o dumpOutput) Write(id string, contents string) {
	o[id] = contents
}

func TestRestyFetcherDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Acme Inc (ACM)</h1></body></html>`))
	}))
	defer server.Close()

	output := dumpOutput{}
	fetcher := NewRestyFetcher(WithResponseDump(output))

	_, err := fetcher.Fetch(context.Background(), server.URL+"/quote")
	require.NoError(t, err)
	require.Len(t, output, 1)
	require.Contains(t, output["1.txt"], "Acme Inc (ACM)")
}
