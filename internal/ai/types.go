package ai

import "example.com/sme-finhealth/backend/internal/analysis"

type CompanyProfile struct {
	Name          string   `json:"name"`
	Industry      string   `json:"industry,omitempty"`
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
}

type InsightsInput struct {
	Company  CompanyProfile             `json:"company"`
	Ratios   analysis.RatioSet          `json:"financial_ratios"`
	CashFlow *analysis.CashFlowAnalysis `json:"cash_flow_analysis,omitempty"`
	Language Language                   `json:"-"`
}

type CostOptimizationInput struct {
	Expenses   map[string]float64 `json:"current_expenses"`
	Benchmarks map[string]float64 `json:"industry_benchmarks"`
	Language   Language           `json:"-"`
}

type CostSuggestion struct {
	Category        string `json:"category"`
	Suggestion      string `json:"suggestion"`
	PotentialImpact string `json:"potential_impact"`
	Priority        string `json:"priority"`
}

type ProductInput struct {
	Company        CompanyProfile `json:"company"`
	CreditScore    int            `json:"credit_score"`
	FinancialNeeds []string       `json:"financial_needs"`
	Language       Language       `json:"-"`
}

type ProductRecommendation struct {
	ProductType string   `json:"product_type"`
	ProductName string   `json:"product_name"`
	Provider    string   `json:"provider"`
	KeyFeatures []string `json:"key_features"`
	Eligibility string   `json:"eligibility"`
	WhySuitable string   `json:"why_suitable"`
}

type InvestorReportInput struct {
	Company     CompanyProfile             `json:"company"`
	Summary     map[string]float64         `json:"financial_summary"`
	HealthScore analysis.HealthScoreResult `json:"health_score"`
	Language    Language                   `json:"-"`
}

type InvestorReport struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Exchange хранит запрос и сырой ответ провайдера, сохраняемые в журнал ai_requests.
type Exchange struct {
	Prompt string
	Raw    []byte
}
