package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"dividend-backend/internal/components/restyutil"
	"dividend-backend/internal/components/serviceutil"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/scraper"
	"dividend-backend/internal/scraper/yahoo"
	"dividend-backend/internal/server"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	verbose          bool
	userAgent        string
	fetchTimeout     time.Duration
	cloudflareBypass bool
	dumpDir          string
	serverUrl        string
	accessToken      string
)

var rootCmd = &cobra.Command{
	Use:   "dividend-cli",
	Short: "dividend-cli scrapes dividend histories and manages a dividend server.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	flags.StringVar(&userAgent, "user-agent", "", "Override the browser user agent used when scraping.")
	flags.DurationVar(&fetchTimeout, "timeout", 0, "Timeout for every page fetch, 0 keeps the transport default.")
	flags.BoolVar(&cloudflareBypass, "cloudflare", false, "Make scraping requests look like they come from a browser.")
	flags.StringVar(&dumpDir, "dump", "", "Write every fetched page into a new directory under this one.")
	flags.StringVar(&serverUrl, "server", "http://localhost:8444", "Base url of the dividend server.")
	flags.StringVar(&accessToken, "token", os.Getenv("DIVIDEND_ACCESS_TOKEN"), "Access token for modifying the server's store.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newScraper() yahoo.Scraper {
	opts := []scraper.FetcherOption{scraper.WithTimeout(fetchTimeout)}
	if userAgent != "" {
		opts = append(opts, scraper.WithUserAgent(userAgent))
	}
	if cloudflareBypass {
		opts = append(opts, scraper.WithCloudflareBypass())
	}
	if dumpDir != "" {
		output, err := newDumpOutput(dumpDir, time.Now())
		if err != nil {
			serviceutil.Fatal("create dump directory", err)
		}
		opts = append(opts, scraper.WithResponseDump(output))
	}
	return yahoo.NewScraper(scraper.NewRestyFetcher(opts...))
}

// newDumpOutput writes into a fresh directory per run under `dir`, nothing already in `dir`
// is touched.
func newDumpOutput(dir string, now time.Time) (restyutil.FilesystemOutput, error) {
	return restyutil.NewFilesystemOutput(filepath.Join(
		dir,
		fmt.Sprintf("dividend-dump-%s", now.UTC().Format("20060102T150405.000000000")),
	))
}

func newClient() *server.Client {
	var opts []connect.ClientOption
	if accessToken != "" {
		opts = append(opts, connect.WithInterceptors(serviceutil.ProvideAccessTokenInterceptor(accessToken)))
	}
	return server.NewClient(http.DefaultClient, serverUrl, opts...)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
