package server

import (
	"context"
	"errors"
	"time"

	"dividend-backend/internal/components/telemetry"

	"connectrpc.com/connect"
)

const report_server_call = "server.call"

// reportingInterceptor reports every unary call, failures that are not the caller's fault are
// reported as broken.
type reportingInterceptor struct {
	tel telemetry.API
}

func newReportingInterceptor(tel telemetry.API) reportingInterceptor {
	return reportingInterceptor{tel: tel}
}

func (r reportingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		res, err := next(ctx, req)
		procedure := req.Spec().Procedure
		if err == nil {
			r.tel.ReportDebug(report_server_call, procedure, time.Since(start).String())
			return res, nil
		}

		var connectErr *connect.Error
		if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal {
			r.tel.ReportWarning(report_server_call, procedure, connectErr.Code().String(), err)
			return res, err
		}
		r.tel.ReportBroken(report_server_call, procedure, err)
		return res, err
	}
}

func (r reportingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (r reportingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
