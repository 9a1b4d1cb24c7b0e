package commands

import (
	"fmt"
	"strings"
	"time"

	"dividend-backend/internal/server"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	listLimit      int
	listOffset     int
	searchLimit    int
	refreshWorkers int
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manages the companies stored by a dividend server.",
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum amount of companies to list, 0 uses the server default.")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Amount of companies to skip.")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum amount of names to return, 0 uses the server default.")
	refreshCmd.Flags().IntVarP(&refreshWorkers, "parallel", "p", 0, "How many companies the server refreshes at once.")

	storeCmd.AddCommand(addCmd, listCmd, searchCmd, dividendsCmd, deleteCmd, runCmd, refreshCmd)
	rootCmd.AddCommand(storeCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <ticker>",
	Short: "Scrapes a ticker on the server and stores the company with its dividends.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().AddCompany(cmd.Context(), connect.NewRequest(&server.AddCompanyRequest{Ticker: args[0]}))
		if err != nil {
			return err
		}
		renderResult(cmd.OutOrStdout(), res.Msg.Result, false)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [--limit <n>] [--offset <n>]",
	Short: "Lists the stored companies by name.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().ListCompanies(cmd.Context(), connect.NewRequest(&server.ListCompaniesRequest{
			Limit:  listLimit,
			Offset: listOffset,
		}))
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Ticker", "Name"})
		for _, c := range res.Msg.Companies {
			t.AppendRow(table.Row{c.Ticker, c.Name})
		}
		t.Render()
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Finds stored company names similar to a keyword.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().SearchCompanies(cmd.Context(), connect.NewRequest(&server.SearchCompaniesRequest{
			Keyword: args[0],
			Limit:   searchLimit,
		}))
		if err != nil {
			return err
		}
		for _, name := range res.Msg.Names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var dividendsCmd = &cobra.Command{
	Use:   "dividends <company name>",
	Short: "Prints the stored dividends of a company.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().GetDividends(cmd.Context(), connect.NewRequest(&server.GetDividendsRequest{
			CompanyName: strings.Join(args, " "),
		}))
		if err != nil {
			return err
		}
		renderResult(cmd.OutOrStdout(), res.Msg.Result, true)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <ticker>",
	Short: "Removes a company and its dividends from the store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().DeleteCompany(cmd.Context(), connect.NewRequest(&server.DeleteCompanyRequest{Ticker: args[0]}))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%s)\n", res.Msg.Name, args[0])
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <ticker>",
	Short: "Shows the latest scrape attempt of a ticker.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().GetScrapeRun(cmd.Context(), connect.NewRequest(&server.GetScrapeRunRequest{Ticker: args[0]}))
		if err != nil {
			return err
		}
		run := res.Msg.Run

		finished := "in progress"
		if !run.FinishedAt.IsZero() {
			finished = run.FinishedAt.Format(time.RFC3339)
		}
		t := newTable(cmd.OutOrStdout())
		t.AppendRows([]table.Row{
			{"ID", run.ID},
			{"Started", run.StartedAt.Format(time.RFC3339)},
			{"Finished", finished},
			{"Dividends", run.DividendCount},
			{"Error", run.Error},
		})
		t.Render()
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [--parallel <n>]",
	Short: "Re-scrapes every stored company on the server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Refresh(cmd.Context(), connect.NewRequest(&server.RefreshRequest{Parallel: refreshWorkers}))
		if err != nil {
			return err
		}
		report := res.Msg.Report
		fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d companies, %d dividends changed\n", report.Companies, report.Changed)
		if res.Msg.Error != "" {
			return fmt.Errorf("failed: %s\n%s", strings.Join(report.Failed, ", "), res.Msg.Error)
		}
		return nil
	},
}
