// Package scraper turns dividend history pages into finance records.
//
// The building blocks (fetching, locating the history table and parsing rows) live here,
// site specific wiring lives in subpackages such as scraper/yahoo.
package scraper

import (
	"context"

	"dividend-backend/internal/finance"
	"dividend-backend/pkg/htmlutil"
)

// Scraper resolves companies and their dividend history from a remote source.
//
// Implementations hold no mutable state, each call fetches fresh pages.
type Scraper interface {
	// ScrapeCompany resolves the display name of a ticker.
	ScrapeCompany(ctx context.Context, ticker string) (finance.Company, error)
	// ScrapeDividends fetches every dividend of a company, the first malformed row aborts the scrape.
	ScrapeDividends(ctx context.Context, company finance.Company) (finance.ScrapedResult, error)
}

// Fetcher retrieves a page and parses it.
//
// note: fault injection point
type Fetcher interface {
	// Fetch performs a single GET, failures are returned as *FetchError.
	Fetch(ctx context.Context, uri string) (htmlutil.Document, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string) (htmlutil.Document, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) (htmlutil.Document, error) {
	return f(ctx, uri)
}
