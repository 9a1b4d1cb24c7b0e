package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"dividend-backend/internal/finance"
	"dividend-backend/internal/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	scrapeParallel int
	scrapeTotal    bool
)

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeParallel, "parallel", "p", 4, "How many tickers to scrape at once.")
	scrapeCmd.Flags().BoolVar(&scrapeTotal, "total", false, "Print the sum of the dividend amounts below each table.")
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(scrapeCmd)
}

var companyCmd = &cobra.Command{
	Use:   "company <ticker>",
	Short: "Resolves the company name listed for a ticker.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		company, err := newScraper().ScrapeCompany(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", company.Ticker, company.Name)
		return nil
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <ticker...> [--parallel <n>] [--total]",
	Short: "Scrapes the dividend history of one or more tickers.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outcomes := scrapeAll(cmd.Context(), newScraper(), args, scrapeParallel)

		failed := 0
		for _, o := range outcomes {
			if o.err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", o.ticker, o.err)
				continue
			}
			renderResult(cmd.OutOrStdout(), o.result, scrapeTotal)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d tickers failed", failed, len(outcomes))
		}
		return nil
	},
}

type scrapeOutcome struct {
	ticker string
	result finance.ScrapedResult
	err    error
}

// scrapeAll scrapes every ticker, the outcomes keep the order of `tickers`.
func scrapeAll(ctx context.Context, s scraper.Scraper, tickers []string, parallel int) []scrapeOutcome {
	if parallel < 1 {
		parallel = 1
	}
	outcomes := make([]scrapeOutcome, len(tickers))

	group := errgroup.Group{}
	group.SetLimit(parallel)
	for i, ticker := range tickers {
		group.Go(func() error {
			outcomes[i] = scrapeOutcome{ticker: ticker}
			company, err := s.ScrapeCompany(ctx, ticker)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			outcomes[i].result, outcomes[i].err = s.ScrapeDividends(ctx, company)
			return nil
		})
	}
	group.Wait()

	return outcomes
}

func renderResult(out io.Writer, result finance.ScrapedResult, total bool) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", result.Company.Name, result.Company.Ticker))
	t.AppendHeader(table.Row{"Date", "Amount"})
	for _, d := range result.Dividends {
		t.AppendRow(table.Row{d.Date.Format(time.DateOnly), d.Amount})
	}
	if total {
		sum, unparsed := finance.TotalAmount(result.Dividends)
		t.AppendFooter(table.Row{"Total", sum.String()})
		if len(unparsed) > 0 {
			t.AppendFooter(table.Row{"Unparsed", len(unparsed)})
		}
	}
	t.Render()
}
