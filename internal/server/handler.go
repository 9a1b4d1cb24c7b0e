package server

import (
	"context"
	"net/http"
	"strings"

	"dividend-backend/internal/components/serviceutil"

	"connectrpc.com/connect"
)

// FinanceServiceName is the fully-qualified name of the finance service.
const FinanceServiceName = "dividend.v1.FinanceService"

const (
	ResolveCompanyProcedure  = "/dividend.v1.FinanceService/ResolveCompany"
	ScrapeDividendsProcedure = "/dividend.v1.FinanceService/ScrapeDividends"
	AddCompanyProcedure      = "/dividend.v1.FinanceService/AddCompany"
	GetDividendsProcedure    = "/dividend.v1.FinanceService/GetDividends"
	ListCompaniesProcedure   = "/dividend.v1.FinanceService/ListCompanies"
	SearchCompaniesProcedure = "/dividend.v1.FinanceService/SearchCompanies"
	DeleteCompanyProcedure   = "/dividend.v1.FinanceService/DeleteCompany"
	GetScrapeRunProcedure    = "/dividend.v1.FinanceService/GetScrapeRun"
	RefreshProcedure         = "/dividend.v1.FinanceService/Refresh"
)

// writeProcedures modify the store and require the access token when one is configured.
var writeProcedures = []string{
	AddCompanyProcedure,
	DeleteCompanyProcedure,
	RefreshProcedure,
}

// NewFinanceServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewFinanceServiceHandler(svc Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(
			newReportingInterceptor(svc.tel),
			serviceutil.VerifyAccessTokenInterceptor(svc.accessToken, writeProcedures...),
		),
	}, opts...)

	handlers := map[string]http.Handler{
		ResolveCompanyProcedure:  connect.NewUnaryHandler(ResolveCompanyProcedure, svc.ResolveCompany, opts...),
		ScrapeDividendsProcedure: connect.NewUnaryHandler(ScrapeDividendsProcedure, svc.ScrapeDividends, opts...),
		AddCompanyProcedure:      connect.NewUnaryHandler(AddCompanyProcedure, svc.AddCompany, opts...),
		GetDividendsProcedure:    connect.NewUnaryHandler(GetDividendsProcedure, svc.GetDividends, opts...),
		ListCompaniesProcedure:   connect.NewUnaryHandler(ListCompaniesProcedure, svc.ListCompanies, opts...),
		SearchCompaniesProcedure: connect.NewUnaryHandler(SearchCompaniesProcedure, svc.SearchCompanies, opts...),
		DeleteCompanyProcedure:   connect.NewUnaryHandler(DeleteCompanyProcedure, svc.DeleteCompany, opts...),
		GetScrapeRunProcedure:    connect.NewUnaryHandler(GetScrapeRunProcedure, svc.GetScrapeRun, opts...),
		RefreshProcedure:         connect.NewUnaryHandler(RefreshProcedure, svc.Refresh, opts...),
	}

	return "/" + FinanceServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// Client calls a finance service over connect.
type Client struct {
	resolveCompany  *connect.Client[ResolveCompanyRequest, ResolveCompanyResponse]
	scrapeDividends *connect.Client[ScrapeDividendsRequest, ScrapeDividendsResponse]
	addCompany      *connect.Client[AddCompanyRequest, AddCompanyResponse]
	getDividends    *connect.Client[GetDividendsRequest, GetDividendsResponse]
	listCompanies   *connect.Client[ListCompaniesRequest, ListCompaniesResponse]
	searchCompanies *connect.Client[SearchCompaniesRequest, SearchCompaniesResponse]
	deleteCompany   *connect.Client[DeleteCompanyRequest, DeleteCompanyResponse]
	getScrapeRun    *connect.Client[GetScrapeRunRequest, GetScrapeRunResponse]
	refresh         *connect.Client[RefreshRequest, RefreshResponse]
}

// NewClient constructs a client for the finance service at `baseUrl` (ex. http://localhost:8444).
func NewClient(httpClient connect.HTTPClient, baseUrl string, opts ...connect.ClientOption) *Client {
	baseUrl = strings.TrimRight(baseUrl, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &Client{
		resolveCompany:  connect.NewClient[ResolveCompanyRequest, ResolveCompanyResponse](httpClient, baseUrl+ResolveCompanyProcedure, opts...),
		scrapeDividends: connect.NewClient[ScrapeDividendsRequest, ScrapeDividendsResponse](httpClient, baseUrl+ScrapeDividendsProcedure, opts...),
		addCompany:      connect.NewClient[AddCompanyRequest, AddCompanyResponse](httpClient, baseUrl+AddCompanyProcedure, opts...),
		getDividends:    connect.NewClient[GetDividendsRequest, GetDividendsResponse](httpClient, baseUrl+GetDividendsProcedure, opts...),
		listCompanies:   connect.NewClient[ListCompaniesRequest, ListCompaniesResponse](httpClient, baseUrl+ListCompaniesProcedure, opts...),
		searchCompanies: connect.NewClient[SearchCompaniesRequest, SearchCompaniesResponse](httpClient, baseUrl+SearchCompaniesProcedure, opts...),
		deleteCompany:   connect.NewClient[DeleteCompanyRequest, DeleteCompanyResponse](httpClient, baseUrl+DeleteCompanyProcedure, opts...),
		getScrapeRun:    connect.NewClient[GetScrapeRunRequest, GetScrapeRunResponse](httpClient, baseUrl+GetScrapeRunProcedure, opts...),
		refresh:         connect.NewClient[RefreshRequest, RefreshResponse](httpClient, baseUrl+RefreshProcedure, opts...),
	}
}

func (c *Client) ResolveCompany(ctx context.Context, req *connect.Request[ResolveCompanyRequest]) (*connect.Response[ResolveCompanyResponse], error) {
	return c.resolveCompany.CallUnary(ctx, req)
}

func (c *Client) ScrapeDividends(ctx context.Context, req *connect.Request[ScrapeDividendsRequest]) (*connect.Response[ScrapeDividendsResponse], error) {
	return c.scrapeDividends.CallUnary(ctx, req)
}

func (c *Client) AddCompany(ctx context.Context, req *connect.Request[AddCompanyRequest]) (*connect.Response[AddCompanyResponse], error) {
	return c.addCompany.CallUnary(ctx, req)
}

func (c *Client) GetDividends(ctx context.Context, req *connect.Request[GetDividendsRequest]) (*connect.Response[GetDividendsResponse], error) {
	return c.getDividends.CallUnary(ctx, req)
}

func (c *Client) ListCompanies(ctx context.Context, req *connect.Request[ListCompaniesRequest]) (*connect.Response[ListCompaniesResponse], error) {
	return c.listCompanies.CallUnary(ctx, req)
}

func (c *Client) SearchCompanies(ctx context.Context, req *connect.Request[SearchCompaniesRequest]) (*connect.Response[SearchCompaniesResponse], error) {
	return c.searchCompanies.CallUnary(ctx, req)
}

func (c *Client) DeleteCompany(ctx context.Context, req *connect.Request[DeleteCompanyRequest]) (*connect.Response[DeleteCompanyResponse], error) {
	return c.deleteCompany.CallUnary(ctx, req)
}

func (c *Client) GetScrapeRun(ctx context.Context, req *connect.Request[GetScrapeRunRequest]) (*connect.Response[GetScrapeRunResponse], error) {
	return c.getScrapeRun.CallUnary(ctx, req)
}

func (c *Client) Refresh(ctx context.Context, req *connect.Request[RefreshRequest]) (*connect.Response[RefreshResponse], error) {
	return c.refresh.CallUnary(ctx, req)
}
