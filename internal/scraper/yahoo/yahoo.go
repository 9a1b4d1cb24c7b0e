// Package yahoo scrapes company names and dividend history from yahoo finance style quote pages.
package yahoo

import (
	"context"
	"fmt"
	"strings"

	"dividend-backend/internal/components/assert"
	"dividend-backend/internal/components/chrono"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/finance"
	"dividend-backend/internal/scraper"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_scraper_scrape_company   = "scraper.scrape-company"
	report_scraper_scrape_dividends = "scraper.scrape-dividends"
)

var tracer = telemetry.Tracer("dividend.internal.scraper.yahoo")

var meter = otel.Meter("dividend.internal.scraper.yahoo")
var scrapedRows, _ = meter.Int64Counter(
	"dividend.scrape.rows",
	metric.WithDescription("history table rows visited while scraping dividends"),
)

// Layout describes where a site keeps the information the scraper needs.
type Layout struct {
	// SummaryURI is formatted with the ticker twice.
	SummaryURI string `json:"summary_uri"`
	// HistoryURI is formatted with the ticker, StartTime and the current unix time.
	HistoryURI string `json:"history_uri"`
	// StartTime is the unix time the dividend history starts at.
	StartTime   int64          `json:"start_time"`
	HeadingTag  string         `json:"heading_tag"`
	TableMarker scraper.Marker `json:"table_marker"`
	RowSuffix   string         `json:"row_suffix"`
}

func DefaultLayout() Layout {
	return Layout{
		SummaryURI: "https://finance.yahoo.com/quote/%s?p=%s",
		HistoryURI: "https://finance.yahoo.com/quote/%s/history?period1=%d&period2=%d&interval=1mo",
		StartTime:  86400,
		HeadingTag: "h1",
		TableMarker: scraper.Marker{
			Name:  "data-test",
			Value: "historical-prices",
		},
		RowSuffix: scraper.DividendSuffix,
	}
}

var _ scraper.Scraper = Scraper{}

// Scraper implements scraper.Scraper, it only reads its configuration so it is safe for concurrent use.
type Scraper struct {
	fetcher scraper.Fetcher
	layout  Layout
	clock   chrono.API
	parser  scraper.RowParser
	tel     telemetry.API
}

type scraperConfig struct {
	layout Layout
	clock  chrono.API
	months scraper.MonthTable
	tel    telemetry.API
}

type Option func(cfg *scraperConfig)

func WithLayout(layout Layout) Option {
	return func(cfg *scraperConfig) {
		cfg.layout = layout
	}
}

func WithClock(clock chrono.API) Option {
	return func(cfg *scraperConfig) {
		cfg.clock = clock
	}
}

func WithMonthTable(months scraper.MonthTable) Option {
	return func(cfg *scraperConfig) {
		cfg.months = months
	}
}

func WithTelemetryAPI(tel telemetry.API) Option {
	return func(cfg *scraperConfig) {
		cfg.tel = tel
	}
}

func NewScraper(fetcher scraper.Fetcher, opts ...Option) Scraper {
	cfg := scraperConfig{
		layout: DefaultLayout(),
		clock:  chrono.StandardImpl{},
		months: scraper.DefaultMonthTable(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}
	assert.NotNil(fetcher, "fetcher")
	assert.NotEmptyStr(cfg.layout.SummaryURI, "layout.summary_uri")
	assert.NotEmptyStr(cfg.layout.HistoryURI, "layout.history_uri")

	return Scraper{
		fetcher: fetcher,
		layout:  cfg.layout,
		clock:   cfg.clock,
		parser:  scraper.NewRowParser(cfg.months, cfg.layout.RowSuffix),
		tel:     telemetry.NewScopedAPI("yahoo_scraper", cfg.tel),
	}
}

func (s Scraper) ScrapeCompany(ctx context.Context, ticker string) (finance.Company, error) {
	ctx, span := tracer.Start(ctx, "ScrapeCompany", trace.WithAttributes(
		attribute.String("ticker", ticker),
	))
	defer span.End()

	if ticker == "" {
		span.SetStatus(codes.Error, scraper.ErrCompanyNotFound.Error())
		return finance.Company{}, scraper.ErrCompanyNotFound
	}

	uri := fmt.Sprintf(s.layout.SummaryURI, ticker, ticker)
	doc, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch summary page")
		s.tel.ReportWarning(report_scraper_scrape_company, err, ticker)
		return finance.Company{}, err
	}

	headings := doc.ElementsByTag(s.layout.HeadingTag)
	if len(headings) == 0 {
		err := fmt.Errorf("%w: %s (no %s on summary page)", scraper.ErrCompanyNotFound, ticker, s.layout.HeadingTag)
		span.SetStatus(codes.Error, err.Error())
		return finance.Company{}, err
	}

	name, _, _ := strings.Cut(headings[0].Text(), "(")
	name = strings.TrimSpace(name)
	if name == "" {
		err := fmt.Errorf("%w: %s", scraper.ErrCompanyNotFound, ticker)
		span.SetStatus(codes.Error, err.Error())
		return finance.Company{}, err
	}

	span.SetAttributes(attribute.String("name", name))
	return finance.Company{Ticker: ticker, Name: name}, nil
}

func (s Scraper) ScrapeDividends(ctx context.Context, company finance.Company) (finance.ScrapedResult, error) {
	ctx, span := tracer.Start(ctx, "ScrapeDividends", trace.WithAttributes(
		attribute.String("ticker", company.Ticker),
	))
	defer span.End()

	uri := fmt.Sprintf(s.layout.HistoryURI, company.Ticker, s.layout.StartTime, s.clock.Now().Unix())
	doc, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch history page")
		s.tel.ReportWarning(report_scraper_scrape_dividends, err, company.Ticker)
		return finance.ScrapedResult{}, err
	}

	body, err := scraper.LocateDividendTable(doc, s.layout.TableMarker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to locate dividend table")
		s.tel.ReportBroken(report_scraper_scrape_dividends, err, company.Ticker, uri)
		return finance.ScrapedResult{}, err
	}

	var parsed, skipped int64
	defer func() {
		scrapedRows.Add(ctx, parsed, metric.WithAttributes(attribute.String("outcome", "parsed")))
		scrapedRows.Add(ctx, skipped, metric.WithAttributes(attribute.String("outcome", "skipped")))
	}()

	dividends := []finance.Dividend{}
	for _, row := range body.Children() {
		text := row.Text()
		if !s.parser.IsDividendRow(text) {
			skipped++
			continue
		}

		dividend, err := s.parser.ParseRow(text)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse dividend row")
			s.tel.ReportBroken(report_scraper_scrape_dividends, err, company.Ticker)
			return finance.ScrapedResult{}, err
		}
		dividends = append(dividends, dividend)
		parsed++
	}

	s.tel.ReportDebug(report_scraper_scrape_dividends, company.Ticker, parsed, skipped)
	span.SetAttributes(attribute.Int("dividends", len(dividends)))

	return finance.ScrapedResult{
		Company:   company,
		Dividends: dividends,
	}, nil
}

// Scrape resolves a ticker and fetches its dividends.
func (s Scraper) Scrape(ctx context.Context, ticker string) (finance.ScrapedResult, error) {
	company, err := s.ScrapeCompany(ctx, ticker)
	if err != nil {
		return finance.ScrapedResult{}, err
	}
	return s.ScrapeDividends(ctx, company)
}
