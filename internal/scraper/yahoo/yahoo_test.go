package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"dividend-backend/internal/components/chrono"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/finance"
	"dividend-backend/internal/scraper"
	"dividend-backend/pkg/htmlutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func historyPage(rows ...string) string {
	body := ""
	for _, row := range rows {
		body += row
	}
	return fmt.Sprintf(`<html><body>
		<table data-test="historical-prices">
			<thead><tr><th>Date</th><th>Open</th></tr></thead>
			<tbody>%s</tbody>
		</table>
	</body></html>`, body)
}

func dividendRow(date, amount string) string {
	return fmt.Sprintf(`<tr><td><span>%s</span></td><td><strong>%s</strong> <span>Dividend</span></td></tr>`, date, amount)
}

func splitRow(date string) string {
	return fmt.Sprintf(`<tr><td><span>%s</span></td><td><strong>2:1</strong> <span>Stock Split</span></td></tr>`, date)
}

// pageFetcher serves fixed pages by uri and records every request.
type pageFetcher struct {
	pages     map[string]string
	requested []string
}

func (f *pageFetcher) Fetch(ctx context.Context, uri string) (htmlutil.Document, error) {
	f.requested = append(f.requested, uri)
	page, ok := f.pages[uri]
	if !ok {
		return nil, &scraper.FetchError{URI: uri, StatusCode: http.StatusNotFound, Err: errors.New("not found")}
	}
	return htmlutil.ParseString(page)
}

func newTestScraper(fetcher scraper.Fetcher, tel telemetry.API) Scraper {
	return NewScraper(
		fetcher,
		WithClock(chrono.FixedImpl{Time: fixedNow}),
		WithTelemetryAPI(tel),
	)
}

func summaryURI(ticker string) string {
	return fmt.Sprintf(DefaultLayout().SummaryURI, ticker, ticker)
}

func historyURI(ticker string) string {
	return fmt.Sprintf(DefaultLayout().HistoryURI, ticker, DefaultLayout().StartTime, fixedNow.Unix())
}

func TestScrapeCompany(t *testing.T) {
	testCases := []struct {
		name     string
		page     string
		expected string
		err      error
	}{
		{
			name:     "name before parenthesis",
			page:     `<html><body><h1>Foo Corp (XYZ)</h1></body></html>`,
			expected: "Foo Corp",
		},
		{
			name:     "nested markup",
			page:     `<html><body><h1> Acme   Inc <span>(ACM)</span></h1><h1>Other (OTH)</h1></body></html>`,
			expected: "Acme Inc",
		},
		{
			name:     "no parenthesis",
			page:     `<html><body><h1>Plain Name</h1></body></html>`,
			expected: "Plain Name",
		},
		{
			name: "empty name",
			page: `<html><body><h1>(XYZ)</h1></body></html>`,
			err:  scraper.ErrCompanyNotFound,
		},
		{
			name: "no heading",
			page: `<html><body><h2>Foo Corp (XYZ)</h2></body></html>`,
			err:  scraper.ErrCompanyNotFound,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			fetcher := &pageFetcher{pages: map[string]string{summaryURI("XYZ"): test.page}}
			s := newTestScraper(fetcher, &telemetry.RecorderAPI{})

			company, err := s.ScrapeCompany(context.Background(), "XYZ")
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, finance.Company{Ticker: "XYZ", Name: test.expected}, company)
			require.Equal(t, []string{"https://finance.yahoo.com/quote/XYZ?p=XYZ"}, fetcher.requested)
		})
	}
}

func TestScrapeCompanyEmptyTicker(t *testing.T) {
	fetcher := &pageFetcher{}
	s := newTestScraper(fetcher, &telemetry.RecorderAPI{})

	_, err := s.ScrapeCompany(context.Background(), "")
	require.ErrorIs(t, err, scraper.ErrCompanyNotFound)
	require.Empty(t, fetcher.requested)
}

func TestScrapeCompanyFetchError(t *testing.T) {
	tel := &telemetry.RecorderAPI{}
	s := newTestScraper(&pageFetcher{}, tel)

	_, err := s.ScrapeCompany(context.Background(), "XYZ")
	var fetchErr *scraper.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Len(t, tel.Reports("warning"), 1)
}

func TestScrapeDividends(t *testing.T) {
	company := finance.Company{Ticker: "ACM", Name: "Acme Inc"}

	testCases := []struct {
		name     string
		page     string
		expected []finance.Dividend
		err      error
	}{
		{
			name: "dividends in row order",
			page: historyPage(
				dividendRow("Mar 15, 2021", "1.25"),
				splitRow("Mar 16, 2021"),
				dividendRow("Dec 1, 2020", "0.50"),
			),
			expected: []finance.Dividend{
				{Date: time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC), Amount: "1.25"},
				{Date: time.Date(2020, time.December, 1, 0, 0, 0, 0, time.UTC), Amount: "0.50"},
			},
		},
		{
			name:     "only stock splits",
			page:     historyPage(splitRow("Mar 16, 2021")),
			expected: []finance.Dividend{},
		},
		{
			name:     "empty table",
			page:     historyPage(),
			expected: []finance.Dividend{},
		},
		{
			name: "invalid month aborts the scrape",
			page: historyPage(
				dividendRow("Mar 15, 2021", "1.25"),
				dividendRow("Xyz 15, 2021", "1.25"),
			),
			err: scraper.ErrInvalidMonth,
		},
		{
			name: "missing table",
			page: `<html><body><table data-test="other"><tbody></tbody></table></body></html>`,
			err:  scraper.ErrTableNotFound,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			fetcher := &pageFetcher{pages: map[string]string{historyURI("ACM"): test.page}}
			s := newTestScraper(fetcher, &telemetry.RecorderAPI{})

			result, err := s.ScrapeDividends(context.Background(), company)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				require.Equal(t, finance.ScrapedResult{}, result)
				return
			}
			require.NoError(t, err)

			expected := finance.ScrapedResult{Company: company, Dividends: test.expected}
			if diff := cmp.Diff(expected, result); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScrapeDividendsMalformedRow(t *testing.T) {
	fetcher := &pageFetcher{pages: map[string]string{
		historyURI("ACM"): historyPage(`<tr><td>Mar</td><td>Dividend</td></tr>`),
	}}
	tel := &telemetry.RecorderAPI{}
	s := newTestScraper(fetcher, tel)

	_, err := s.ScrapeDividends(context.Background(), finance.Company{Ticker: "ACM", Name: "Acme Inc"})
	var rowErr *scraper.RowError
	require.True(t, errors.As(err, &rowErr))
	require.Len(t, tel.Reports("broken"), 1)
}

func TestScrapeDividendsDeterministic(t *testing.T) {
	fetcher := &pageFetcher{pages: map[string]string{
		historyURI("ACM"): historyPage(
			dividendRow("Mar 15, 2021", "1.25"),
			dividendRow("Jun 15, 2021", "1.30"),
		),
	}}
	s := newTestScraper(fetcher, &telemetry.RecorderAPI{})
	company := finance.Company{Ticker: "ACM", Name: "Acme Inc"}

	first, err := s.ScrapeDividends(context.Background(), company)
	require.NoError(t, err)
	second, err := s.ScrapeDividends(context.Background(), company)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ between runs (-first +second):\n%s", diff)
	}
	require.Equal(t, fetcher.requested[0], fetcher.requested[1])
}

func TestScrapeEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quote/ACM", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("p") != "ACM" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body><h1>Acme Inc <span>(ACM)</span></h1></body></html>`))
	})
	mux.HandleFunc("/quote/ACM/history", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("period1") != "86400" || query.Get("period2") != strconv.FormatInt(fixedNow.Unix(), 10) {
			http.Error(w, "unexpected period", http.StatusBadRequest)
			return
		}
		w.Write([]byte(historyPage(
			dividendRow("Mar 15, 2021", "1.25"),
			splitRow("Mar 16, 2021"),
		)))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	layout := DefaultLayout()
	layout.SummaryURI = server.URL + "/quote/%s?p=%s"
	layout.HistoryURI = server.URL + "/quote/%s/history?period1=%d&period2=%d&interval=1mo"

	tel := &telemetry.RecorderAPI{}
	s := NewScraper(
		scraper.NewRestyFetcher(scraper.WithFetcherTelemetryAPI(tel)),
		WithLayout(layout),
		WithClock(chrono.FixedImpl{Time: fixedNow}),
		WithTelemetryAPI(tel),
	)

	result, err := s.Scrape(context.Background(), "ACM")
	require.NoError(t, err)

	expected := finance.ScrapedResult{
		Company: finance.Company{Ticker: "ACM", Name: "Acme Inc"},
		Dividends: []finance.Dividend{
			{Date: time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC), Amount: "1.25"},
		},
	}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
	require.Empty(t, tel.Reports("broken"))

	_, err = s.Scrape(context.Background(), "NOPE")
	var fetchErr *scraper.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}
