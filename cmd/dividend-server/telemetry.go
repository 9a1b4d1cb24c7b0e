package main

import (
	"context"
	"log/slog"

	"dividend-backend/internal/components/serviceutil"
	"dividend-backend/internal/components/telemetry"
)

// InitTelemetry starts the otlp exporters configured in the `telemetry` block, logging is set
// up beforehand by InitSlog so config errors are still reported.
func InitTelemetry(ctx context.Context, cfg telemetry.Config) telemetry.API {
	otel, err := telemetry.Setup(ctx, "dividend-server", cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := otel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	}()

	tel := telemetry.SlogAPI{}
	telemetry.InstrumentPerfStats(ctx, tel)
	return tel
}
