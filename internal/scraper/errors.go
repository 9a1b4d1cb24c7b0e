package scraper

import (
	"errors"
	"fmt"
)

// ErrCompanyNotFound is returned when a ticker does not resolve to a company name.
var ErrCompanyNotFound = errors.New("no company found for ticker")

// ErrTableNotFound is returned when a page does not contain the dividend history table.
var ErrTableNotFound = errors.New("dividend table not found")

// ErrInvalidMonth matches every *InvalidMonthError through errors.Is.
var ErrInvalidMonth = errors.New("invalid month")

// FetchError is a failure to reach or read a source page.
type FetchError struct {
	URI string
	// StatusCode is set when the server answered with an error status, 0 otherwise.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URI, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// InvalidMonthError is returned when a row's month token is not a known month name.
type InvalidMonthError struct {
	Token string
	Row   string
}

func (e *InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month %q in row %q", e.Token, e.Row)
}

func (e *InvalidMonthError) Is(target error) bool {
	return target == ErrInvalidMonth
}

// RowError is returned when a dividend row does not follow the expected column layout.
type RowError struct {
	Row string
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("parse row %q: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
