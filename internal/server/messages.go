package server

import (
	"dividend-backend/internal/finance"
	"dividend-backend/internal/financeapi"
)

type ResolveCompanyRequest struct {
	Ticker string `json:"ticker"`
}

type ResolveCompanyResponse struct {
	Company finance.Company `json:"company"`
}

type ScrapeDividendsRequest struct {
	Company finance.Company `json:"company"`
}

type ScrapeDividendsResponse struct {
	Result finance.ScrapedResult `json:"result"`
}

type AddCompanyRequest struct {
	Ticker string `json:"ticker"`
}

type AddCompanyResponse struct {
	Result finance.ScrapedResult `json:"result"`
}

type GetDividendsRequest struct {
	CompanyName string `json:"company_name"`
}

type GetDividendsResponse struct {
	Result finance.ScrapedResult `json:"result"`
	// Total sums every amount that could be parsed as a number.
	Total string `json:"total"`
}

type ListCompaniesRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type ListCompaniesResponse struct {
	Companies []finance.Company `json:"companies"`
}

type SearchCompaniesRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type SearchCompaniesResponse struct {
	Names []string `json:"names"`
}

type DeleteCompanyRequest struct {
	Ticker string `json:"ticker"`
}

type DeleteCompanyResponse struct {
	Name string `json:"name"`
}

type GetScrapeRunRequest struct {
	Ticker string `json:"ticker"`
}

type GetScrapeRunResponse struct {
	Run financeapi.ScrapeRun `json:"run"`
}

type RefreshRequest struct {
	Parallel int `json:"parallel"`
}

type RefreshResponse struct {
	Report financeapi.RefreshReport `json:"report"`
	// Error is set when some companies failed, the report is still valid.
	Error string `json:"error,omitempty"`
}
