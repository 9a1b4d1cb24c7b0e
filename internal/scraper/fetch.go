package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"dividend-backend/internal/components/restyutil"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/pkg/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const report_fetcher_fetch = "fetcher.fetch"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// RestyFetcher implements Fetcher over a resty client, it never retries.
type RestyFetcher struct {
	http *resty.Client
	tel  telemetry.API
}

type fetcherConfig struct {
	tel              telemetry.API
	userAgent        string
	timeout          time.Duration
	cloudflareBypass bool
	dump             restyutil.Output
}

type FetcherOption func(cfg *fetcherConfig)

func WithFetcherTelemetryAPI(tel telemetry.API) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.tel = tel
	}
}

// WithUserAgent overrides the browser user agent sent with every request.
func WithUserAgent(userAgent string) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.userAgent = userAgent
	}
}

// WithTimeout bounds every request, 0 keeps the transport default.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.timeout = timeout
	}
}

// WithCloudflareBypass wraps the transport so requests look like they come from a browser.
func WithCloudflareBypass() FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.cloudflareBypass = true
	}
}

// WithResponseDump writes every fetched page along with its request to `output`.
func WithResponseDump(output restyutil.Output) FetcherOption {
	return func(cfg *fetcherConfig) {
		cfg.dump = output
	}
}

func NewRestyFetcher(opts ...FetcherOption) *RestyFetcher {
	cfg := fetcherConfig{userAgent: defaultUserAgent}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI("fetcher", cfg.tel)

	client := resty.New()
	if cfg.cloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", cfg.userAgent)
	client.SetRetryCount(0)
	if cfg.timeout > 0 {
		client.SetTimeout(cfg.timeout)
	}

	telemetry.InstrumentResty(client, tel)
	if cfg.dump != nil {
		restyutil.DumpResponses(client, cfg.dump)
	}

	return &RestyFetcher{http: client, tel: tel}
}

func (f *RestyFetcher) Fetch(ctx context.Context, uri string) (htmlutil.Document, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(uri)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}
	if res.IsError() {
		f.tel.ReportWarning(report_fetcher_fetch, uri, res.Status())
		return nil, &FetchError{
			URI:        uri,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("unexpected status %s", res.Status()),
		}
	}

	doc, err := htmlutil.ParseDocument(bytes.NewReader(res.Body()))
	if err != nil {
		f.tel.ReportBroken(report_fetcher_fetch, fmt.Errorf("parse html: %w", err), uri)
		return nil, &FetchError{URI: uri, Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}
