package financeapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"dividend-backend/internal/db"
	"dividend-backend/internal/finance"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// RefreshReport summarizes a refresh of every stored company.
type RefreshReport struct {
	StartedAt time.Time `json:"started_at"`
	Companies int       `json:"companies"`
	// Changed counts dividends that were added or whose amount changed.
	Changed int64 `json:"changed"`
	// Failed lists the tickers that could not be refreshed.
	Failed []string `json:"failed"`
}

func (impl Implementation) refreshCompany(ctx context.Context, company db.Company) (int64, error) {
	runId := impl.startScrapeRun(ctx, company.Ticker)

	result, err := impl.scraper.ScrapeDividends(ctx, finance.Company{
		Ticker: company.Ticker,
		Name:   company.Name,
	})
	if err != nil {
		impl.finishScrapeRun(ctx, runId, 0, err)
		return 0, err
	}

	var changed int64
	err = db.RunTx(impl.makeTx, func(tx *db.Queries) error {
		changed, err = upsertDividends(ctx, tx, company.Ticker, result.Dividends)
		return err
	})
	if err != nil {
		impl.finishScrapeRun(ctx, runId, 0, err)
		return 0, err
	}

	impl.finishScrapeRun(ctx, runId, len(result.Dividends), nil)
	return changed, nil
}

// Refresh scrapes every stored company again and stores new dividends, at most `parallel`
// companies are scraped at once. A company that fails never stops the others, every
// failure is returned joined together.
func (impl Implementation) Refresh(ctx context.Context, parallel int) (RefreshReport, error) {
	ctx, span := tracer.Start(ctx, "Refresh", trace.WithAttributes(
		attribute.Int("parallel", parallel),
	))
	defer span.End()

	report := RefreshReport{StartedAt: impl.clock.Now()}

	companies, err := impl.qry.ListAllCompanies(ctx)
	if err != nil {
		impl.tel.ReportBroken(report_db_query, err, "ListAllCompanies")
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list companies")
		return report, err
	}
	report.Companies = len(companies)

	if parallel <= 0 {
		parallel = 1
	}

	var mutex sync.Mutex
	var errlist []error

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for _, company := range companies {
		group.Go(func() error {
			changed, err := impl.refreshCompany(groupCtx, company)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				impl.tel.ReportWarning(report_refresh, err, company.Ticker)
				errlist = append(errlist, fmt.Errorf("%s: %w", company.Ticker, err))
				report.Failed = append(report.Failed, company.Ticker)
				return nil
			}
			report.Changed += changed
			return nil
		})
	}
	group.Wait()
	slices.Sort(report.Failed)

	err = errors.Join(errlist...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some companies failed to refresh")
	}
	impl.tel.ReportCount(report_refresh, report.Changed)

	if impl.notifier != nil {
		notifyErr := impl.notifier.NotifyRefresh(ctx, report, err)
		if notifyErr != nil {
			impl.tel.ReportBroken(report_refresh_notify, notifyErr)
		}
	}

	return report, err
}
