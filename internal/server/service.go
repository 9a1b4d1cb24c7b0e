// Package server exposes the scraper and the stored dividends over connect.
package server

import (
	"context"

	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/finance"
	"dividend-backend/internal/financeapi"
	"dividend-backend/internal/scraper"

	"connectrpc.com/connect"
)

// FinanceAPI is the store the server reads and writes companies through.
//
// note: fault injection point
type FinanceAPI interface {
	AddCompany(ctx context.Context, ticker string) (finance.ScrapedResult, error)
	GetDividends(ctx context.Context, companyName string) (finance.ScrapedResult, error)
	ListCompanies(ctx context.Context, limit, offset int) ([]finance.Company, error)
	SearchCompanies(ctx context.Context, keyword string, limit int) ([]string, error)
	DeleteCompany(ctx context.Context, ticker string) (string, error)
	LatestScrapeRun(ctx context.Context, ticker string) (financeapi.ScrapeRun, error)
	Refresh(ctx context.Context, parallel int) (financeapi.RefreshReport, error)
}

const report_server_get_dividends = "server.get-dividends"

type Service struct {
	finance     FinanceAPI
	scraper     scraper.Scraper
	accessToken string
	tel         telemetry.API
}

type serviceConfig struct {
	accessToken string
	tel         telemetry.API
}

type Option func(cfg *serviceConfig)

// WithAccessToken requires a bearer token on every procedure that modifies the store.
func WithAccessToken(token string) Option {
	return func(cfg *serviceConfig) {
		cfg.accessToken = token
	}
}

func WithTelemetryAPI(tel telemetry.API) Option {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

func NewService(financeApi FinanceAPI, s scraper.Scraper, opts ...Option) Service {
	cfg := serviceConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tel == nil {
		cfg.tel = telemetry.SlogAPI{}
	}
	return Service{
		finance:     financeApi,
		scraper:     s,
		accessToken: cfg.accessToken,
		tel:         telemetry.NewScopedAPI("server", cfg.tel),
	}
}

func (s Service) ResolveCompany(ctx context.Context, req *connect.Request[ResolveCompanyRequest]) (*connect.Response[ResolveCompanyResponse], error) {
	company, err := s.scraper.ScrapeCompany(ctx, req.Msg.Ticker)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ResolveCompanyResponse{Company: company}), nil
}

func (s Service) ScrapeDividends(ctx context.Context, req *connect.Request[ScrapeDividendsRequest]) (*connect.Response[ScrapeDividendsResponse], error) {
	company := req.Msg.Company
	if company.Ticker == "" {
		return nil, invalidArgument("company.ticker")
	}
	if company.Name == "" {
		resolved, err := s.scraper.ScrapeCompany(ctx, company.Ticker)
		if err != nil {
			return nil, connectError(err)
		}
		company = resolved
	}

	result, err := s.scraper.ScrapeDividends(ctx, company)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ScrapeDividendsResponse{Result: result}), nil
}

func (s Service) AddCompany(ctx context.Context, req *connect.Request[AddCompanyRequest]) (*connect.Response[AddCompanyResponse], error) {
	if req.Msg.Ticker == "" {
		return nil, invalidArgument("ticker")
	}
	result, err := s.finance.AddCompany(ctx, req.Msg.Ticker)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&AddCompanyResponse{Result: result}), nil
}

func (s Service) GetDividends(ctx context.Context, req *connect.Request[GetDividendsRequest]) (*connect.Response[GetDividendsResponse], error) {
	if req.Msg.CompanyName == "" {
		return nil, invalidArgument("company_name")
	}
	result, err := s.finance.GetDividends(ctx, req.Msg.CompanyName)
	if err != nil {
		return nil, connectError(err)
	}

	total, unparsed := finance.TotalAmount(result.Dividends)
	if len(unparsed) > 0 {
		s.tel.ReportWarning(report_server_get_dividends, "unparsed amounts", result.Company.Ticker, len(unparsed))
	}

	return connect.NewResponse(&GetDividendsResponse{
		Result: result,
		Total:  total.String(),
	}), nil
}

func (s Service) ListCompanies(ctx context.Context, req *connect.Request[ListCompaniesRequest]) (*connect.Response[ListCompaniesResponse], error) {
	companies, err := s.finance.ListCompanies(ctx, req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ListCompaniesResponse{Companies: companies}), nil
}

func (s Service) SearchCompanies(ctx context.Context, req *connect.Request[SearchCompaniesRequest]) (*connect.Response[SearchCompaniesResponse], error) {
	names, err := s.finance.SearchCompanies(ctx, req.Msg.Keyword, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}
	if names == nil {
		names = []string{}
	}
	return connect.NewResponse(&SearchCompaniesResponse{Names: names}), nil
}

func (s Service) DeleteCompany(ctx context.Context, req *connect.Request[DeleteCompanyRequest]) (*connect.Response[DeleteCompanyResponse], error) {
	if req.Msg.Ticker == "" {
		return nil, invalidArgument("ticker")
	}
	name, err := s.finance.DeleteCompany(ctx, req.Msg.Ticker)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DeleteCompanyResponse{Name: name}), nil
}

func (s Service) GetScrapeRun(ctx context.Context, req *connect.Request[GetScrapeRunRequest]) (*connect.Response[GetScrapeRunResponse], error) {
	if req.Msg.Ticker == "" {
		return nil, invalidArgument("ticker")
	}
	run, err := s.finance.LatestScrapeRun(ctx, req.Msg.Ticker)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&GetScrapeRunResponse{Run: run}), nil
}

func (s Service) Refresh(ctx context.Context, req *connect.Request[RefreshRequest]) (*connect.Response[RefreshResponse], error) {
	report, err := s.finance.Refresh(ctx, req.Msg.Parallel)
	res := &RefreshResponse{Report: report}
	if err != nil {
		if len(report.Failed) == 0 {
			return nil, connectError(err)
		}
		res.Error = err.Error()
	}
	return connect.NewResponse(res), nil
}
