package db

import "database/sql"

type Company struct {
	Ticker string
	Name   string
}

type Dividend struct {
	CompanyTicker string
	Date          int64
	Amount        string
}

type ScrapeRun struct {
	ID            string
	Ticker        string
	StartedAt     int64
	FinishedAt    sql.NullInt64
	DividendCount int64
	Error         sql.NullString
}
