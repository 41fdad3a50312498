package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/ai"
	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/models"
	"example.com/sme-finhealth/backend/internal/notifications"
	"example.com/sme-finhealth/backend/internal/repository"
)

const (
	sourceAI       = "ai"
	sourceFallback = "fallback"
)

type CostOptimizationRequest struct {
	Expenses   map[string]float64 `json:"expenses"`
	Benchmarks map[string]float64 `json:"benchmarks"`
	Language   string             `json:"language" validate:"omitempty,oneof=en hi"`
}

type CostOptimizationResponse struct {
	CompanyID   uuid.UUID           `json:"company_id"`
	Suggestions []ai.CostSuggestion `json:"suggestions"`
	Source      string              `json:"source"`
}

type ProductRecommendationsRequest struct {
	FinancialNeeds []string `json:"financial_needs" validate:"max=10,dive,required,max=100"`
	Language       string   `json:"language" validate:"omitempty,oneof=en hi"`
}

type ProductRecommendationsResponse struct {
	CompanyID   uuid.UUID                  `json:"company_id"`
	CreditScore int                        `json:"credit_score"`
	Products    []ai.ProductRecommendation `json:"products"`
	Source      string                     `json:"source"`
}

type InvestorReportRequest struct {
	Language string `json:"language" validate:"omitempty,oneof=en hi"`
}

type InvestorReportResponse struct {
	CompanyID uuid.UUID `json:"company_id"`
	Markdown  string    `json:"markdown"`
	HTML      string    `json:"html"`
	Source    string    `json:"source"`
}

// CostOptimization предлагает меры по сокращению расходов. Без явных расходов в запросе
// берутся статьи последнего P&L.
func (h *AnalysisHandler) CostOptimization(c echo.Context) error {
	userID, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req CostOptimizationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	language, err := h.bodyLanguage(c, req.Language)
	if err != nil {
		return h.fail(c, err)
	}

	expenses := req.Expenses
	if len(expenses) == 0 {
		profitLoss, err := h.Statements.LatestProfitLoss(c.Request().Context(), company.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return badRequest(c, "expenses or a profit and loss statement required")
			}
			return h.fail(c, err)
		}
		expenses = expensesFromProfitLoss(profitLoss)
	}
	if len(expenses) == 0 {
		return badRequest(c, "no expenses to analyze")
	}

	input := ai.CostOptimizationInput{Expenses: expenses, Benchmarks: req.Benchmarks, Language: language}
	inputPayload, _ := json.Marshal(input)
	suggestions, exchange, err := h.Narrator.CostOptimization(c.Request().Context(), input)
	var responsePayload []byte
	if err == nil {
		responsePayload, _ = json.Marshal(suggestions)
	}
	h.journal.record(c.Request().Context(), userID, company.ID, aiRequestCostOptimization, exchange, inputPayload, responsePayload, err)

	source := sourceAI
	if err != nil {
		source = sourceFallback
		suggestions = fallbackCostSuggestions()
		logNarrationSource(aiRequestCostOptimization, source, company.ID, userID, err)
	}

	return c.JSON(http.StatusOK, CostOptimizationResponse{CompanyID: company.ID, Suggestions: suggestions, Source: source})
}

// ProductRecommendations подбирает финансовые продукты по последнему кредитному скорингу.
// Если истории нет, скоринг рассчитывается на лету без сохранения.
func (h *AnalysisHandler) ProductRecommendations(c echo.Context) error {
	userID, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req ProductRecommendationsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	language, err := h.bodyLanguage(c, req.Language)
	if err != nil {
		return h.fail(c, err)
	}

	score, err := h.latestCreditScore(c, company)
	if err != nil {
		return h.fail(c, err)
	}

	needs := req.FinancialNeeds
	if len(needs) == 0 {
		needs = []string{"working capital"}
	}

	input := ai.ProductInput{Company: companyProfile(company), CreditScore: score, FinancialNeeds: needs, Language: language}
	inputPayload, _ := json.Marshal(input)
	products, exchange, err := h.Narrator.ProductRecommendations(c.Request().Context(), input)
	var responsePayload []byte
	if err == nil {
		responsePayload, _ = json.Marshal(products)
	}
	h.journal.record(c.Request().Context(), userID, company.ID, aiRequestProductRecommendations, exchange, inputPayload, responsePayload, err)

	source := sourceAI
	if err != nil {
		source = sourceFallback
		products = []ai.ProductRecommendation{}
		logNarrationSource(aiRequestProductRecommendations, source, company.ID, userID, err)
	}

	return c.JSON(http.StatusOK, ProductRecommendationsResponse{
		CompanyID:   company.ID,
		CreditScore: score,
		Products:    products,
		Source:      source,
	})
}

// InvestorReport готовит инвестиционный профиль компании. format=html отдает HTML-страницу.
func (h *AnalysisHandler) InvestorReport(c echo.Context) error {
	userID, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req InvestorReportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	language, err := h.bodyLanguage(c, req.Language)
	if err != nil {
		return h.fail(c, err)
	}

	assessment, input, err := h.assess(c.Request().Context(), company)
	if err != nil {
		return h.fail(c, err)
	}

	reportInput := ai.InvestorReportInput{
		Company:     companyProfile(company),
		Summary:     investorSummary(input, assessment),
		HealthScore: assessment.HealthScore,
		Language:    language,
	}
	inputPayload, _ := json.Marshal(reportInput)
	report, exchange, err := h.Narrator.InvestorReport(c.Request().Context(), reportInput)
	var responsePayload []byte
	if err == nil {
		responsePayload, _ = json.Marshal(map[string]string{"markdown": report.Markdown})
	}
	h.journal.record(c.Request().Context(), userID, company.ID, aiRequestInvestorReport, exchange, inputPayload, responsePayload, err)

	source := sourceAI
	if err != nil {
		source = sourceFallback
		logNarrationSource(aiRequestInvestorReport, source, company.ID, userID, err)

		report.Markdown = fallbackInvestorReport(company, reportInput.Summary, assessment)
		if report.HTML, err = ai.RenderMarkdown(report.Markdown); err != nil {
			return h.fail(c, err)
		}
	}

	h.Notifier.PublishCompany(userID, company.ID, notifications.EventInvestorReportReady, map[string]any{"source": source})

	if strings.EqualFold(strings.TrimSpace(c.QueryParam("format")), "html") {
		return c.HTML(http.StatusOK, report.HTML)
	}

	return c.JSON(http.StatusOK, InvestorReportResponse{
		CompanyID: company.ID,
		Markdown:  report.Markdown,
		HTML:      report.HTML,
		Source:    source,
	})
}

// bodyLanguage берет язык из тела запроса, затем из query и токена.
func (h *AnalysisHandler) bodyLanguage(c echo.Context, requested string) (ai.Language, error) {
	if strings.TrimSpace(requested) != "" {
		language, err := ai.ParseLanguage(requested)
		if err != nil {
			return "", errUnsupportedLanguage
		}
		return language, nil
	}
	return h.language(c)
}

func (h *AnalysisHandler) latestCreditScore(c echo.Context, company models.Company) (int, error) {
	history, err := h.Scores.History(c.Request().Context(), company.ID, 1)
	if err != nil {
		return 0, err
	}
	if len(history) > 0 {
		return history[0].Score, nil
	}

	assessment, _, err := h.assess(c.Request().Context(), company)
	if err != nil {
		return 0, err
	}
	return assessment.CreditScore.Score, nil
}

// expensesFromProfitLoss собирает расходные статьи P&L в плоскую карту для подсказки.
func expensesFromProfitLoss(statement analysis.ProfitLoss) map[string]float64 {
	expenses := make(map[string]float64, len(statement.Expenses.OperatingExpenses)+len(statement.Expenses.OtherExpenses)+1)
	for label, amount := range statement.Expenses.OperatingExpenses {
		expenses[label] = amount
	}
	for label, amount := range statement.Expenses.OtherExpenses {
		expenses[label] += amount
	}
	if statement.Expenses.CostOfGoodsSold > 0 {
		expenses["cost of goods sold"] += statement.Expenses.CostOfGoodsSold
	}
	return expenses
}

func investorSummary(input analysis.AssessmentInput, assessment analysis.Assessment) map[string]float64 {
	summary := map[string]float64{
		"total_revenue":     input.ProfitLoss.Revenue.TotalRevenue,
		"net_profit":        input.ProfitLoss.Profit.NetProfit,
		"total_assets":      input.BalanceSheet.Assets.TotalAssets,
		"total_liabilities": input.BalanceSheet.Liabilities.TotalLiabilities,
		"total_equity":      input.BalanceSheet.Equity.TotalEquity,
		"net_profit_margin": assessment.Ratios.Profitability.NetProfitMargin,
		"current_ratio":     assessment.Ratios.Liquidity.CurrentRatio,
		"debt_to_equity":    assessment.Ratios.Leverage.DebtToEquity,
		"credit_score":      float64(assessment.CreditScore.Score),
	}
	if assessment.CashFlow != nil {
		summary["net_cash_flow"] = assessment.CashFlow.TotalNetCashFlow
	}
	return summary
}

func fallbackCostSuggestions() []ai.CostSuggestion {
	return []ai.CostSuggestion{
		{
			Category:        "General",
			Suggestion:      "Review recurring vendor contracts and renegotiate or consolidate the largest ones.",
			PotentialImpact: "To be determined",
			Priority:        "high",
		},
		{
			Category:        "General",
			Suggestion:      "Track operating expenses monthly against revenue to spot categories growing faster than sales.",
			PotentialImpact: "To be determined",
			Priority:        "medium",
		},
	}
}

// fallbackInvestorReport собирает отчет из рассчитанных показателей, когда модель недоступна.
func fallbackInvestorReport(company models.Company, summary map[string]float64, assessment analysis.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Investment Profile: %s\n\n", company.Name)
	fmt.Fprintf(&b, "Industry: %s\n\n", company.Industry)
	b.WriteString("## Financial Summary\n\n| Metric | Value |\n| --- | --- |\n")

	keys := make([]string, 0, len(summary))
	for key := range summary {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "| %s | %.2f |\n", key, summary[key])
	}

	b.WriteString("\n## Health Assessment\n\n")
	fmt.Fprintf(&b, "- Health score: %d/%d (%s)\n", assessment.HealthScore.TotalScore, assessment.HealthScore.MaxScore, assessment.HealthScore.Grade)
	fmt.Fprintf(&b, "- Credit score: %d (%s, %s risk)\n", assessment.CreditScore.Score, assessment.CreditScore.Grade, assessment.CreditScore.RiskCategory)
	if len(assessment.CreditScore.Strengths) > 0 {
		fmt.Fprintf(&b, "- Strengths: %s\n", strings.Join(assessment.CreditScore.Strengths, ", "))
	}
	if len(assessment.CreditScore.Weaknesses) > 0 {
		fmt.Fprintf(&b, "- Weaknesses: %s\n", strings.Join(assessment.CreditScore.Weaknesses, ", "))
	}

	return b.String()
}

func logNarrationSource(requestType, source string, companyID, userID uuid.UUID, err error) {
	switch source {
	case sourceFallback:
		slog.Warn("ai narration fallback used",
			slog.String("request_type", requestType),
			slog.String("company_id", companyID.String()),
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
	default:
		slog.Info("ai narration generated", slog.String("request_type", requestType), slog.String("company_id", companyID.String()))
	}
}

// AIRequests возвращает журнал AI-запросов текущего пользователя.
func (h *AnalysisHandler) AIRequests(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := repository.AIRequestFilter{UserID: userID}
	if raw := strings.TrimSpace(c.QueryParam("company_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid company_id")
		}
		filter.CompanyID = &parsed
	}

	if raw := strings.TrimSpace(c.QueryParam("success")); raw != "" {
		success, err := parseBoolParam(c, "success", false)
		if err != nil {
			return badRequest(c, err.Error())
		}
		filter.Success = &success
	}

	if raw := strings.TrimSpace(c.QueryParam("request_type")); raw != "" {
		filter.RequestType = &raw
	}

	requests, err := h.journal.Store.List(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return serverError(c)
	}

	total, err := h.journal.Store.Count(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"requests": requests,
	})
}
