package db

import (
	"context"
	"database/sql"
)

const createCompany = `-- name: CreateCompany :exec
insert into company (ticker, name) values (?, ?)
`

type CreateCompanyParams struct {
	Ticker string
	Name   string
}

func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) error {
	_, err := q.db.ExecContext(ctx, createCompany, arg.Ticker, arg.Name)
	return err
}

const getCompanyByTicker = `-- name: GetCompanyByTicker :one
select ticker, name from company where ticker = ?
`

func (q *Queries) GetCompanyByTicker(ctx context.Context, ticker string) (Company, error) {
	row := q.db.QueryRowContext(ctx, getCompanyByTicker, ticker)
	var i Company
	err := row.Scan(&i.Ticker, &i.Name)
	return i, err
}

const getCompanyByName = `-- name: GetCompanyByName :one
select ticker, name from company where name = ?
`

func (q *Queries) GetCompanyByName(ctx context.Context, name string) (Company, error) {
	row := q.db.QueryRowContext(ctx, getCompanyByName, name)
	var i Company
	err := row.Scan(&i.Ticker, &i.Name)
	return i, err
}

const listCompanies = `-- name: ListCompanies :many
select ticker, name from company
order by name asc
limit ? offset ?
`

type ListCompaniesParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListCompanies(ctx context.Context, arg ListCompaniesParams) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx, listCompanies, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Company
	for rows.Next() {
		var i Company
		if err := rows.Scan(&i.Ticker, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCompanyNames = `-- name: ListCompanyNames :many
select name from company order by name asc
`

func (q *Queries) ListCompanyNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCompanyNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAllCompanies = `-- name: ListAllCompanies :many
select ticker, name from company order by ticker asc
`

func (q *Queries) ListAllCompanies(ctx context.Context) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx, listAllCompanies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Company
	for rows.Next() {
		var i Company
		if err := rows.Scan(&i.Ticker, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCompany = `-- name: DeleteCompany :execrows
delete from company where ticker = ?
`

func (q *Queries) DeleteCompany(ctx context.Context, ticker string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCompany, ticker)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCompanyDividends = `-- name: DeleteCompanyDividends :exec
delete from dividend where company_ticker = ?
`

func (q *Queries) DeleteCompanyDividends(ctx context.Context, companyTicker string) error {
	_, err := q.db.ExecContext(ctx, deleteCompanyDividends, companyTicker)
	return err
}

const upsertDividend = `-- name: UpsertDividend :execrows
insert into dividend (company_ticker, date, amount) values (?, ?, ?)
on conflict (company_ticker, date) do update set amount = excluded.amount
where dividend.amount != excluded.amount
`

type UpsertDividendParams struct {
	CompanyTicker string
	Date          int64
	Amount        string
}

// UpsertDividend returns 0 when an identical dividend is already stored.
func (q *Queries) UpsertDividend(ctx context.Context, arg UpsertDividendParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, upsertDividend, arg.CompanyTicker, arg.Date, arg.Amount)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getCompanyDividends = `-- name: GetCompanyDividends :many
select company_ticker, date, amount from dividend
where company_ticker = ?
order by date asc
`

func (q *Queries) GetCompanyDividends(ctx context.Context, companyTicker string) ([]Dividend, error) {
	rows, err := q.db.QueryContext(ctx, getCompanyDividends, companyTicker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Dividend
	for rows.Next() {
		var i Dividend
		if err := rows.Scan(&i.CompanyTicker, &i.Date, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createScrapeRun = `-- name: CreateScrapeRun :exec
insert into scrape_run (id, ticker, started_at) values (?, ?, ?)
`

type CreateScrapeRunParams struct {
	ID        string
	Ticker    string
	StartedAt int64
}

func (q *Queries) CreateScrapeRun(ctx context.Context, arg CreateScrapeRunParams) error {
	_, err := q.db.ExecContext(ctx, createScrapeRun, arg.ID, arg.Ticker, arg.StartedAt)
	return err
}

const finishScrapeRun = `-- name: FinishScrapeRun :exec
update scrape_run set
    finished_at = ?,
    dividend_count = ?,
    error = ?
where id = ?
`

type FinishScrapeRunParams struct {
	FinishedAt    int64
	DividendCount int64
	Error         sql.NullString
	ID            string
}

func (q *Queries) FinishScrapeRun(ctx context.Context, arg FinishScrapeRunParams) error {
	_, err := q.db.ExecContext(ctx, finishScrapeRun,
		arg.FinishedAt,
		arg.DividendCount,
		arg.Error,
		arg.ID,
	)
	return err
}

const getLatestScrapeRun = `-- name: GetLatestScrapeRun :one
select id, ticker, started_at, finished_at, dividend_count, error from scrape_run
where ticker = ?
order by started_at desc, rowid desc
limit 1
`

func (q *Queries) GetLatestScrapeRun(ctx context.Context, ticker string) (ScrapeRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestScrapeRun, ticker)
	var i ScrapeRun
	err := row.Scan(
		&i.ID,
		&i.Ticker,
		&i.StartedAt,
		&i.FinishedAt,
		&i.DividendCount,
		&i.Error,
	)
	return i, err
}
