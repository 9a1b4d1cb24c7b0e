package server

import (
	"context"
	"errors"
	"fmt"

	"dividend-backend/internal/financeapi"
	"dividend-backend/internal/scraper"

	"connectrpc.com/connect"
)

// errorCode picks the code a caller sees for an error returned by the scraper or the store.
func errorCode(err error) connect.Code {
	var fetchErr *scraper.FetchError
	var rowErr *scraper.RowError

	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.As(err, &fetchErr):
		return connect.CodeUnavailable
	case errors.Is(err, scraper.ErrCompanyNotFound):
		return connect.CodeNotFound
	case errors.Is(err, scraper.ErrTableNotFound):
		return connect.CodeFailedPrecondition
	case errors.Is(err, scraper.ErrInvalidMonth), errors.As(err, &rowErr):
		return connect.CodeDataLoss
	case errors.Is(err, financeapi.ErrCompanyNotStored):
		return connect.CodeNotFound
	case errors.Is(err, financeapi.ErrCompanyExists):
		return connect.CodeAlreadyExists
	default:
		return connect.CodeInternal
	}
}

func connectError(err error) error {
	var existing *connect.Error
	if errors.As(err, &existing) {
		return existing
	}
	return connect.NewError(errorCode(err), err)
}

func invalidArgument(field string) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s must not be empty", field))
}
