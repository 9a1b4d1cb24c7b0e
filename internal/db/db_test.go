package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dividend-backend/internal/components/sqliteutil"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (*Queries, MakeTx) {
	sqlite, err := sqliteutil.Config{File: ":memory:"}.OpenDB(Schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlite.Close()
	})
	return New(sqlite), NewMakeTx(sqlite)
}

func TestCompanies(t *testing.T) {
	ctx := context.Background()
	qry, _ := setup(t)

	require.NoError(t, qry.CreateCompany(ctx, CreateCompanyParams{Ticker: "ACM", Name: "Acme Inc"}))
	require.NoError(t, qry.CreateCompany(ctx, CreateCompanyParams{Ticker: "FOO", Name: "Foo Corp"}))
	require.Error(t, qry.CreateCompany(ctx, CreateCompanyParams{Ticker: "ACM", Name: "Other"}))
	require.Error(t, qry.CreateCompany(ctx, CreateCompanyParams{Ticker: "ACM2", Name: "Acme Inc"}))

	company, err := qry.GetCompanyByTicker(ctx, "FOO")
	require.NoError(t, err)
	require.Equal(t, Company{Ticker: "FOO", Name: "Foo Corp"}, company)

	company, err = qry.GetCompanyByName(ctx, "Acme Inc")
	require.NoError(t, err)
	require.Equal(t, "ACM", company.Ticker)

	_, err = qry.GetCompanyByName(ctx, "Nobody")
	require.True(t, errors.Is(err, sql.ErrNoRows))

	page, err := qry.ListCompanies(ctx, ListCompaniesParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, []Company{{Ticker: "FOO", Name: "Foo Corp"}}, page)

	names, err := qry.ListCompanyNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Acme Inc", "Foo Corp"}, names)

	deleted, err := qry.DeleteCompany(ctx, "FOO")
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
	deleted, err = qry.DeleteCompany(ctx, "FOO")
	require.NoError(t, err)
	require.Zero(t, deleted)

	all, err := qry.ListAllCompanies(ctx)
	require.NoError(t, err)
	require.Equal(t, []Company{{Ticker: "ACM", Name: "Acme Inc"}}, all)
}

func TestDividends(t *testing.T) {
	ctx := context.Background()
	qry, _ := setup(t)

	require.NoError(t, qry.CreateCompany(ctx, CreateCompanyParams{Ticker: "ACM", Name: "Acme Inc"}))

	affected, err := qry.UpsertDividend(ctx, UpsertDividendParams{CompanyTicker: "ACM", Date: 200, Amount: "1.25"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	affected, err = qry.UpsertDividend(ctx, UpsertDividendParams{CompanyTicker: "ACM", Date: 100, Amount: "0.50"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	affected, err = qry.UpsertDividend(ctx, UpsertDividendParams{CompanyTicker: "ACM", Date: 200, Amount: "1.25"})
	require.NoError(t, err)
	require.Zero(t, affected, "identical dividends are not rewritten")

	affected, err = qry.UpsertDividend(ctx, UpsertDividendParams{CompanyTicker: "ACM", Date: 200, Amount: "1.30"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	_, err = qry.UpsertDividend(ctx, UpsertDividendParams{CompanyTicker: "NOPE", Date: 100, Amount: "1"})
	require.Error(t, err, "dividends must belong to a stored company")

	dividends, err := qry.GetCompanyDividends(ctx, "ACM")
	require.NoError(t, err)
	require.Equal(t, []Dividend{
		{CompanyTicker: "ACM", Date: 100, Amount: "0.50"},
		{CompanyTicker: "ACM", Date: 200, Amount: "1.30"},
	}, dividends)

	require.NoError(t, qry.DeleteCompanyDividends(ctx, "ACM"))
	dividends, err = qry.GetCompanyDividends(ctx, "ACM")
	require.NoError(t, err)
	require.Empty(t, dividends)
}

func TestScrapeRuns(t *testing.T) {
	ctx := context.Background()
	qry, _ := setup(t)

	_, err := qry.GetLatestScrapeRun(ctx, "ACM")
	require.True(t, errors.Is(err, sql.ErrNoRows))

	require.NoError(t, qry.CreateScrapeRun(ctx, CreateScrapeRunParams{ID: "a", Ticker: "ACM", StartedAt: 10}))
	require.NoError(t, qry.CreateScrapeRun(ctx, CreateScrapeRunParams{ID: "b", Ticker: "ACM", StartedAt: 20}))
	require.NoError(t, qry.FinishScrapeRun(ctx, FinishScrapeRunParams{
		ID:            "b",
		FinishedAt:    25,
		DividendCount: 3,
		Error:         sql.NullString{String: "boom", Valid: true},
	}))

	run, err := qry.GetLatestScrapeRun(ctx, "ACM")
	require.NoError(t, err)
	require.Equal(t, ScrapeRun{
		ID:            "b",
		Ticker:        "ACM",
		StartedAt:     20,
		FinishedAt:    sql.NullInt64{Int64: 25, Valid: true},
		DividendCount: 3,
		Error:         sql.NullString{String: "boom", Valid: true},
	}, run)
}

func TestRunTx(t *testing.T) {
	ctx := context.Background()
	qry, makeTx := setup(t)

	err := RunTx(makeTx, func(tx *Queries) error {
		err := tx.CreateCompany(ctx, CreateCompanyParams{Ticker: "ACM", Name: "Acme Inc"})
		if err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	_, err = qry.GetCompanyByTicker(ctx, "ACM")
	require.True(t, errors.Is(err, sql.ErrNoRows), "aborted transactions are rolled back")

	err = RunTx(makeTx, func(tx *Queries) error {
		return tx.CreateCompany(ctx, CreateCompanyParams{Ticker: "ACM", Name: "Acme Inc"})
	})
	require.NoError(t, err)

	_, err = qry.GetCompanyByTicker(ctx, "ACM")
	require.NoError(t, err)
}
