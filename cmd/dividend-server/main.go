package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"

	"dividend-backend/internal/components/chrono"
	"dividend-backend/internal/components/configutil"
	"dividend-backend/internal/components/restyutil"
	"dividend-backend/internal/components/serviceutil"
	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/db"
	"dividend-backend/internal/financeapi"
	"dividend-backend/internal/notify"
	"dividend-backend/internal/scraper"
	"dividend-backend/internal/scraper/yahoo"
	"dividend-backend/internal/server"

	"connectrpc.com/connect"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the json5 configuration file.")
	initialRefresh := flag.Bool("refresh", false, "Refresh every stored company immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	if *verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	cfg, err := configutil.ReadOrDefault(*configPath, defaultConfig())
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	tel := InitTelemetry(ctx, cfg.Telemetry)

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()

	fetcherOpts := append(cfg.Scraper.fetcherOptions(), scraper.WithFetcherTelemetryAPI(tel))
	if *verbose {
		output, err := restyutil.ResetFilesystemOutput(".dev/resty/fetcher")
		if err != nil {
			serviceutil.Fatal("create resty output", err)
		}
		fetcherOpts = append(fetcherOpts, scraper.WithResponseDump(output))
	}
	fetcher := scraper.NewRestyFetcher(fetcherOpts...)
	yahooScraper := yahoo.NewScraper(
		fetcher,
		yahoo.WithLayout(cfg.Scraper.Layout),
		yahoo.WithTelemetryAPI(tel),
	)

	financeOpts := []financeapi.Option{financeapi.WithTelemetryAPI(tel)}
	if cfg.Smtp.Enabled() {
		financeOpts = append(financeOpts, financeapi.WithNotifier(notify.NewEmailNotifier(cfg.Smtp)))
	}
	finance := financeapi.NewImplementation(
		db.New(database),
		db.NewMakeTx(database),
		yahooScraper,
		financeOpts...,
	)

	cron, err := InitRefreshCron(ctx, cfg.Server, finance, tel)
	if err != nil {
		serviceutil.Fatal("init refresh cron", err)
	}
	if *initialRefresh {
		go refresh(ctx, finance, cfg.Server.RefreshParallel)
	}

	svc := server.NewService(
		finance,
		yahooScraper,
		server.WithAccessToken(cfg.Server.AccessToken),
		server.WithTelemetryAPI(tel),
	)
	mux := http.NewServeMux()
	mux.Handle(server.NewFinanceServiceHandler(
		svc,
		connect.WithInterceptors(serviceutil.NewConnectOtelInterceptor()),
	))

	err = serviceutil.ServeUntilDone(ctx, serviceutil.NewHttpServer(cfg.Server.Port, mux))
	if cron != nil {
		<-cron.Stop().Done()
	}
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
}

// InitRefreshCron schedules periodic refreshes, it returns nil when no schedule is configured.
func InitRefreshCron(ctx context.Context, cfg ServerConfig, finance financeapi.Implementation, tel telemetry.API) (*chrono.StandardCron, error) {
	if cfg.RefreshCron == "" {
		return nil, nil
	}
	clock, err := chrono.NewStandardImpl(cfg.RefreshTimezone)
	if err != nil {
		return nil, err
	}
	location := clock.Location()

	cron := chrono.NewStandardCron(tel, location)
	err = cron.Cron(cfg.RefreshCron, func() {
		refresh(ctx, finance, cfg.RefreshParallel)
	})
	if err != nil {
		cron.Stop()
		return nil, err
	}
	slog.Info("scheduled refresh", "spec", cfg.RefreshCron, "location", location.String())
	return &cron, nil
}

func refresh(ctx context.Context, finance financeapi.Implementation, parallel int) {
	report, err := finance.Refresh(ctx, parallel)
	if err != nil {
		slog.Warn("refresh finished with failures", "companies", report.Companies, "failed", report.Failed)
		return
	}
	slog.Info("refresh finished", "companies", report.Companies, "changed", report.Changed)
}
