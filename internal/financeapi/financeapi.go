// Package financeapi stores scraped companies and dividends and serves them back.
package financeapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dividend-backend/internal/components/assert"
	"dividend-backend/internal/components/chrono"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/db"
	"dividend-backend/internal/finance"
	"dividend-backend/internal/scraper"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_db_query       = "db.query"
	report_scrape_run     = "finance.scrape-run"
	report_add_company    = "finance.add-company"
	report_refresh        = "finance.refresh"
	report_refresh_notify = "finance.refresh-notify"
)

const (
	defaultListLimit    = 50
	maxListLimit        = 500
	defaultSearchLimit  = 10
	similarityThreshold = 0.7
	scrapeRunIdLength   = 16
)

var tracer = telemetry.Tracer("dividend.internal.financeapi")

// ErrCompanyExists is returned when adding a company whose ticker or name is already stored.
var ErrCompanyExists = errors.New("company already exists")

// ErrCompanyNotStored is returned when a company is looked up that was never added.
var ErrCompanyNotStored = errors.New("company not stored")

// Notifier is told about the outcome of every refresh.
type Notifier interface {
	NotifyRefresh(ctx context.Context, report RefreshReport, err error) error
}

type Implementation struct {
	qry      *db.Queries
	makeTx   db.MakeTx
	scraper  scraper.Scraper
	clock    chrono.API
	notifier Notifier
	tel      telemetry.API
}

type implConfig struct {
	clock    chrono.API
	notifier Notifier
	tel      telemetry.API
}

type Option func(cfg *implConfig)

func WithClock(clock chrono.API) Option {
	return func(cfg *implConfig) {
		cfg.clock = clock
	}
}

// WithNotifier reports refresh outcomes to `notifier`, by default nobody is notified.
func WithNotifier(notifier Notifier) Option {
	return func(cfg *implConfig) {
		cfg.notifier = notifier
	}
}

func WithTelemetryAPI(tel telemetry.API) Option {
	return func(cfg *implConfig) {
		cfg.tel = tel
	}
}

func NewImplementation(qry *db.Queries, makeTx db.MakeTx, s scraper.Scraper, opts ...Option) Implementation {
	cfg := implConfig{clock: chrono.StandardImpl{}}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}
	assert.NotNil(s, "scraper")

	return Implementation{
		qry:      qry,
		makeTx:   makeTx,
		scraper:  s,
		clock:    cfg.clock,
		notifier: cfg.notifier,
		tel:      telemetry.NewScopedAPI("financeapi", cfg.tel),
	}
}

// Scraper returns the scraper companies are resolved with.
func (impl Implementation) Scraper() scraper.Scraper {
	return impl.scraper
}

func toFinanceDividends(rows []db.Dividend) []finance.Dividend {
	dividends := make([]finance.Dividend, len(rows))
	for i, row := range rows {
		dividends[i] = finance.Dividend{
			Date:   time.Unix(row.Date, 0).UTC(),
			Amount: row.Amount,
		}
	}
	return dividends
}

func upsertDividends(ctx context.Context, tx *db.Queries, ticker string, dividends []finance.Dividend) (int64, error) {
	var changed int64
	for _, d := range dividends {
		affected, err := tx.UpsertDividend(ctx, db.UpsertDividendParams{
			CompanyTicker: ticker,
			Date:          d.Date.Unix(),
			Amount:        d.Amount,
		})
		if err != nil {
			return 0, fmt.Errorf("upsert dividend %s: %w", d.Date.Format(time.DateOnly), err)
		}
		changed += affected
	}
	return changed, nil
}

func (impl Implementation) startScrapeRun(ctx context.Context, ticker string) string {
	id, err := random.String(scrapeRunIdLength)
	if err != nil {
		impl.tel.ReportBroken(report_scrape_run, fmt.Errorf("generate id: %w", err), ticker)
		return ""
	}
	err = impl.qry.CreateScrapeRun(ctx, db.CreateScrapeRunParams{
		ID:        id,
		Ticker:    ticker,
		StartedAt: impl.clock.Now().Unix(),
	})
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "CreateScrapeRun", ticker)
		return ""
	}
	return id
}

func (impl Implementation) finishScrapeRun(ctx context.Context, id string, dividends int, scrapeErr error) {
	if id == "" {
		return
	}
	var message sql.NullString
	if scrapeErr != nil {
		message = sql.NullString{String: scrapeErr.Error(), Valid: true}
	}
	err := impl.qry.FinishScrapeRun(ctx, db.FinishScrapeRunParams{
		ID:            id,
		FinishedAt:    impl.clock.Now().Unix(),
		DividendCount: int64(dividends),
		Error:         message,
	})
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "FinishScrapeRun", id)
	}
}

// AddCompany scrapes a company that is not stored yet and stores it along with its dividends.
func (impl Implementation) AddCompany(ctx context.Context, ticker string) (finance.ScrapedResult, error) {
	ctx, span := tracer.Start(ctx, "AddCompany", trace.WithAttributes(
		attribute.String("ticker", ticker),
	))
	defer span.End()

	_, err := impl.qry.GetCompanyByTicker(ctx, ticker)
	if err == nil {
		span.SetStatus(codes.Error, "company already exists")
		return finance.ScrapedResult{}, fmt.Errorf("%w: %s", ErrCompanyExists, ticker)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		impl.tel.ReportBroken(report_db_query, err, "GetCompanyByTicker", ticker)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query company")
		return finance.ScrapedResult{}, err
	}

	runId := impl.startScrapeRun(ctx, ticker)

	company, err := impl.scraper.ScrapeCompany(ctx, ticker)
	if err != nil {
		impl.finishScrapeRun(ctx, runId, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape company")
		return finance.ScrapedResult{}, err
	}
	result, err := impl.scraper.ScrapeDividends(ctx, company)
	if err != nil {
		impl.finishScrapeRun(ctx, runId, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape dividends")
		return finance.ScrapedResult{}, err
	}

	err = db.RunTx(impl.makeTx, func(tx *db.Queries) error {
		existing, err := tx.GetCompanyByName(ctx, company.Name)
		if err == nil {
			return fmt.Errorf("%w: %q is stored as %s", ErrCompanyExists, company.Name, existing.Ticker)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		err = tx.CreateCompany(ctx, db.CreateCompanyParams{
			Ticker: company.Ticker,
			Name:   company.Name,
		})
		if err != nil {
			return fmt.Errorf("create company: %w", err)
		}
		_, err = upsertDividends(ctx, tx, company.Ticker, result.Dividends)
		return err
	})
	if err != nil {
		impl.finishScrapeRun(ctx, runId, 0, err)
		if !errors.Is(err, ErrCompanyExists) {
			impl.tel.ReportBroken(report_add_company, err, ticker)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store company")
		return finance.ScrapedResult{}, err
	}

	impl.finishScrapeRun(ctx, runId, len(result.Dividends), nil)
	impl.tel.ReportDebug(report_add_company, ticker, company.Name, len(result.Dividends))
	return result, nil
}

// GetDividends returns a stored company and its dividends ordered by date.
func (impl Implementation) GetDividends(ctx context.Context, companyName string) (finance.ScrapedResult, error) {
	ctx, span := tracer.Start(ctx, "GetDividends", trace.WithAttributes(
		attribute.String("company_name", companyName),
	))
	defer span.End()

	company, err := impl.qry.GetCompanyByName(ctx, companyName)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "company not stored")
		return finance.ScrapedResult{}, fmt.Errorf("%w: %q", ErrCompanyNotStored, companyName)
	}
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "GetCompanyByName", companyName)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query company")
		return finance.ScrapedResult{}, err
	}

	rows, err := impl.qry.GetCompanyDividends(ctx, company.Ticker)
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "GetCompanyDividends", company.Ticker)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query dividends")
		return finance.ScrapedResult{}, err
	}

	return finance.ScrapedResult{
		Company: finance.Company{
			Ticker: company.Ticker,
			Name:   company.Name,
		},
		Dividends: toFinanceDividends(rows),
	}, nil
}

// ListCompanies pages through the stored companies ordered by name.
// A non-positive limit means the default page size.
func (impl Implementation) ListCompanies(ctx context.Context, limit, offset int) ([]finance.Company, error) {
	ctx, span := tracer.Start(ctx, "ListCompanies")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := impl.qry.ListCompanies(ctx, db.ListCompaniesParams{
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "ListCompanies")
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list companies")
		return nil, err
	}

	companies := make([]finance.Company, len(rows))
	for i, row := range rows {
		companies[i] = finance.Company{Ticker: row.Ticker, Name: row.Name}
	}
	return companies, nil
}

// DeleteCompany removes a stored company with its dividends and returns its name.
func (impl Implementation) DeleteCompany(ctx context.Context, ticker string) (string, error) {
	ctx, span := tracer.Start(ctx, "DeleteCompany", trace.WithAttributes(
		attribute.String("ticker", ticker),
	))
	defer span.End()

	var name string
	err := db.RunTx(impl.makeTx, func(tx *db.Queries) error {
		company, err := tx.GetCompanyByTicker(ctx, ticker)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrCompanyNotStored, ticker)
		}
		if err != nil {
			return err
		}
		err = tx.DeleteCompanyDividends(ctx, ticker)
		if err != nil {
			return err
		}
		_, err = tx.DeleteCompany(ctx, ticker)
		if err != nil {
			return err
		}
		name = company.Name
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrCompanyNotStored) {
			impl.tel.ReportBroken(report_db_query, err, "DeleteCompany", ticker)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete company")
		return "", err
	}
	return name, nil
}

// ScrapeRun is the record of a single attempt at scraping a ticker.
type ScrapeRun struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is zero while the run is in progress.
	FinishedAt    time.Time `json:"finished_at"`
	DividendCount int64     `json:"dividend_count"`
	Error         string    `json:"error,omitempty"`
}

// LatestScrapeRun returns the most recent scrape attempt of a ticker.
func (impl Implementation) LatestScrapeRun(ctx context.Context, ticker string) (ScrapeRun, error) {
	ctx, span := tracer.Start(ctx, "LatestScrapeRun", trace.WithAttributes(
		attribute.String("ticker", ticker),
	))
	defer span.End()

	row, err := impl.qry.GetLatestScrapeRun(ctx, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "no scrape runs")
		return ScrapeRun{}, fmt.Errorf("%w: no scrape runs for %s", ErrCompanyNotStored, ticker)
	}
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "GetLatestScrapeRun", ticker)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query scrape run")
		return ScrapeRun{}, err
	}

	run := ScrapeRun{
		ID:            row.ID,
		Ticker:        row.Ticker,
		StartedAt:     time.Unix(row.StartedAt, 0).UTC(),
		DividendCount: row.DividendCount,
		Error:         row.Error.String,
	}
	if row.FinishedAt.Valid {
		run.FinishedAt = time.Unix(row.FinishedAt.Int64, 0).UTC()
	}
	return run, nil
}
