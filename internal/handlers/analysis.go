package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/ai"
	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/config"
	"example.com/sme-finhealth/backend/internal/models"
	"example.com/sme-finhealth/backend/internal/notifications"
	"example.com/sme-finhealth/backend/internal/repository"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

var (
	errMissingUser         = errors.New("missing user")
	errInvalidCompanyID    = errors.New("invalid company id")
	errStatementsRequired  = errors.New("financial statements required")
	errUnsupportedLanguage = errors.New("language must be en or hi")
)

type AnalysisHandler struct {
	Companies    CompanyStore
	Statements   StatementStore
	Transactions TransactionStore
	Scores       CreditScoreStore
	Narrator     *ai.Service
	Notifier     *notifications.Hub
	Settings     config.AnalysisConfig
	journal      aiJournal
	now          func() time.Time
}

// AnalysisDependencies собирает хранилища и сервисы обработчика анализа.
type AnalysisDependencies struct {
	Companies    CompanyStore
	Statements   StatementStore
	Transactions TransactionStore
	Scores       CreditScoreStore
	AIRequests   AIRequestStore
	Narrator     *ai.Service
	Notifier     *notifications.Hub
	Provider     string
	Model        string
}

// NewAnalysisHandler создает обработчик финансового анализа.
func NewAnalysisHandler(deps AnalysisDependencies, settings config.AnalysisConfig) *AnalysisHandler {
	return &AnalysisHandler{
		Companies:    deps.Companies,
		Statements:   deps.Statements,
		Transactions: deps.Transactions,
		Scores:       deps.Scores,
		Narrator:     deps.Narrator,
		Notifier:     deps.Notifier,
		Settings:     settings,
		journal:      aiJournal{Store: deps.AIRequests, Provider: deps.Provider, Model: deps.Model},
		now:          time.Now,
	}
}

type RatiosResponse struct {
	CompanyID uuid.UUID `json:"company_id"`
	analysis.RatioSet
	CalculatedAt time.Time `json:"calculated_at"`
}

type CreditScoreResponse struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	analysis.CreditScoreResult
	CalculatedAt time.Time `json:"calculated_at"`
}

type CreditHistoryResponse struct {
	CompanyID uuid.UUID                  `json:"company_id"`
	Scores    []models.CreditScoreRecord `json:"scores"`
}

type HealthScoreResponse struct {
	CompanyID       uuid.UUID                  `json:"company_id"`
	OverallScore    int                        `json:"overall_score"`
	Grade           string                     `json:"grade"`
	ScoreBreakdown  analysis.HealthBreakdown   `json:"score_breakdown"`
	MaxScore        int                        `json:"max_score"`
	Ratios          analysis.RatioSet          `json:"ratios"`
	CashFlowSummary *analysis.CashFlowAnalysis `json:"cash_flow_summary"`
	AIInsights      *string                    `json:"ai_insights"`
}

type CashFlowResponse struct {
	CompanyID            uuid.UUID `json:"company_id"`
	AnalysisPeriodMonths int       `json:"analysis_period_months"`
	analysis.CashFlowAnalysis
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Ratios рассчитывает коэффициенты по последним балансу и P&L.
func (h *AnalysisHandler) Ratios(c echo.Context) error {
	_, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	balanceSheet, profitLoss, err := h.latestStatements(c.Request().Context(), company.ID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, RatiosResponse{
		CompanyID:    company.ID,
		RatioSet:     analysis.ComputeRatios(balanceSheet, profitLoss),
		CalculatedAt: h.now().UTC(),
	})
}

// CreditScore рассчитывает кредитный скоринг и сохраняет его в историю.
// С language=hi рекомендации переводятся; при сбое перевода остаются английскими.
func (h *AnalysisHandler) CreditScore(c echo.Context) error {
	userID, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	language, err := h.language(c)
	if err != nil {
		return h.fail(c, err)
	}

	assessment, _, err := h.assess(c.Request().Context(), company)
	if err != nil {
		return h.fail(c, err)
	}

	record, err := h.Scores.Save(c.Request().Context(), company.ID, assessment.CreditScore)
	if err != nil {
		return h.fail(c, err)
	}

	result := assessment.CreditScore
	result.ImprovementSuggestions = h.translateSuggestions(c.Request().Context(), userID, company.ID, result.ImprovementSuggestions, language)

	h.Notifier.PublishCompany(userID, company.ID, notifications.EventCreditScoreComputed, map[string]any{
		"score": result.Score,
		"grade": result.Grade,
	})

	return c.JSON(http.StatusOK, CreditScoreResponse{
		ID:                record.ID,
		CompanyID:         company.ID,
		CreditScoreResult: result,
		CalculatedAt:      record.CalculatedAt,
	})
}

// CreditScoreHistory возвращает сохраненные результаты скоринга, новые первыми.
func (h *AnalysisHandler) CreditScoreHistory(c echo.Context) error {
	_, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	limit, _, err := parsePagination(c, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		return badRequest(c, err.Error())
	}

	scores, err := h.Scores.History(c.Request().Context(), company.ID, limit)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, CreditHistoryResponse{CompanyID: company.ID, Scores: scores})
}

// HealthScore рассчитывает индекс здоровья и, по запросу, AI-комментарий к нему.
// Сбой AI не ломает ответ: вместо комментария возвращается статический текст.
func (h *AnalysisHandler) HealthScore(c echo.Context) error {
	userID, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	language, err := h.language(c)
	if err != nil {
		return h.fail(c, err)
	}

	includeInsights, err := parseBoolParam(c, "include_ai_insights", true)
	if err != nil {
		return badRequest(c, err.Error())
	}

	assessment, _, err := h.assess(c.Request().Context(), company)
	if err != nil {
		return h.fail(c, err)
	}

	var insights *string
	if includeInsights {
		text := h.financialInsights(c.Request().Context(), userID, company, assessment, language)
		insights = &text
	}

	h.Notifier.PublishCompany(userID, company.ID, notifications.EventHealthScoreComputed, map[string]any{
		"overall_score": assessment.HealthScore.TotalScore,
		"grade":         assessment.HealthScore.Grade,
	})

	return c.JSON(http.StatusOK, HealthScoreResponse{
		CompanyID:       company.ID,
		OverallScore:    assessment.HealthScore.TotalScore,
		Grade:           assessment.HealthScore.Grade,
		ScoreBreakdown:  assessment.HealthScore.Breakdown,
		MaxScore:        assessment.HealthScore.MaxScore,
		Ratios:          assessment.Ratios,
		CashFlowSummary: assessment.CashFlow,
		AIInsights:      insights,
	})
}

// CashFlow анализирует денежный поток за последние months месяцев.
func (h *AnalysisHandler) CashFlow(c echo.Context) error {
	_, company, err := h.companyFromRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	months, err := h.windowMonths(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	now := h.now()
	transactions, err := h.Transactions.ListSince(c.Request().Context(), company.ID, analysis.WindowStart(now, months))
	if err != nil {
		return h.fail(c, err)
	}

	result, err := analysis.AnalyzeCashFlow(transactions, months, now)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, CashFlowResponse{
		CompanyID:            company.ID,
		AnalysisPeriodMonths: months,
		CashFlowAnalysis:     result,
		AnalyzedAt:           now.UTC(),
	})
}

func (h *AnalysisHandler) companyFromRequest(c echo.Context) (uuid.UUID, models.Company, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return uuid.Nil, models.Company{}, errMissingUser
	}

	companyID, err := parseCompanyID(c)
	if err != nil {
		return uuid.Nil, models.Company{}, errInvalidCompanyID
	}

	company, err := h.Companies.GetByID(c.Request().Context(), userID, companyID)
	if err != nil {
		return uuid.Nil, models.Company{}, err
	}

	return userID, company, nil
}

func (h *AnalysisHandler) latestStatements(ctx context.Context, companyID uuid.UUID) (analysis.BalanceSheet, analysis.ProfitLoss, error) {
	balanceSheet, err := h.Statements.LatestBalanceSheet(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return analysis.BalanceSheet{}, analysis.ProfitLoss{}, errStatementsRequired
		}
		return analysis.BalanceSheet{}, analysis.ProfitLoss{}, err
	}

	profitLoss, err := h.Statements.LatestProfitLoss(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return analysis.BalanceSheet{}, analysis.ProfitLoss{}, errStatementsRequired
		}
		return analysis.BalanceSheet{}, analysis.ProfitLoss{}, err
	}

	return balanceSheet, profitLoss, nil
}

// assess собирает входные данные компании и прогоняет полный конвейер оценки.
func (h *AnalysisHandler) assess(ctx context.Context, company models.Company) (analysis.Assessment, analysis.AssessmentInput, error) {
	balanceSheet, profitLoss, err := h.latestStatements(ctx, company.ID)
	if err != nil {
		return analysis.Assessment{}, analysis.AssessmentInput{}, err
	}

	now := h.now()
	window := h.Settings.CashFlowWindowMonths
	transactions, err := h.Transactions.ListSince(ctx, company.ID, analysis.WindowStart(now, window))
	if err != nil {
		return analysis.Assessment{}, analysis.AssessmentInput{}, err
	}

	sample, err := h.Transactions.Recent(ctx, company.ID, h.Settings.TransactionSampleLimit)
	if err != nil {
		return analysis.Assessment{}, analysis.AssessmentInput{}, err
	}

	input := analysis.AssessmentInput{
		Company:           company.Profile(),
		BalanceSheet:      balanceSheet,
		ProfitLoss:        profitLoss,
		Transactions:      transactions,
		TransactionSample: sample,
		WindowMonths:      window,
	}

	assessment, err := analysis.Assess(input, now)
	return assessment, input, err
}

func (h *AnalysisHandler) windowMonths(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("months"))
	if raw == "" {
		return h.Settings.CashFlowWindowMonths, nil
	}

	months, err := strconv.Atoi(raw)
	if err != nil || months < 1 || months > h.Settings.MaxCashFlowWindowMonths {
		return 0, errors.New("months must be between 1 and " + strconv.Itoa(h.Settings.MaxCashFlowWindowMonths))
	}
	return months, nil
}

// language берет язык из query, затем из токена.
func (h *AnalysisHandler) language(c echo.Context) (ai.Language, error) {
	raw := strings.TrimSpace(c.QueryParam("language"))
	if raw == "" {
		raw = auth.LanguageFromContext(c)
	}

	language, err := ai.ParseLanguage(raw)
	if err != nil {
		return "", errUnsupportedLanguage
	}
	return language, nil
}

func (h *AnalysisHandler) financialInsights(ctx context.Context, userID uuid.UUID, company models.Company, assessment analysis.Assessment, language ai.Language) string {
	input := ai.InsightsInput{
		Company:  companyProfile(company),
		Ratios:   assessment.Ratios,
		CashFlow: assessment.CashFlow,
		Language: language,
	}

	inputPayload, _ := json.Marshal(input)
	text, exchange, err := h.Narrator.FinancialInsights(ctx, input)
	var responsePayload []byte
	if err == nil {
		responsePayload, _ = json.Marshal(map[string]string{"insights": text})
	}
	h.journal.record(ctx, userID, company.ID, aiRequestFinancialInsights, exchange, inputPayload, responsePayload, err)

	if err != nil {
		slog.Warn("ai insights fallback used",
			slog.String("company_id", company.ID.String()),
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
		return fallbackInsights(language)
	}
	return text
}

func (h *AnalysisHandler) translateSuggestions(ctx context.Context, userID, companyID uuid.UUID, suggestions []string, language ai.Language) []string {
	if language == ai.LanguageEnglish || len(suggestions) == 0 {
		return suggestions
	}

	source := strings.Join(suggestions, "\n")
	translated, err := h.Narrator.Translate(ctx, source, language)
	h.journal.record(ctx, userID, companyID, aiRequestTranslation, ai.Exchange{Prompt: source, Raw: []byte(translated)}, nil, nil, err)
	if err != nil {
		slog.Warn("suggestion translation skipped", slog.String("company_id", companyID.String()), slog.Any("error", err))
		return suggestions
	}

	lines := make([]string, 0, len(suggestions))
	for _, line := range strings.Split(translated, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	// Модель объединила или разбила строки: соответствие рекомендациям потеряно.
	if len(lines) != len(suggestions) {
		return suggestions
	}
	return lines
}

func (h *AnalysisHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errMissingUser):
		return unauthorized(c)
	case errors.Is(err, errInvalidCompanyID):
		return badRequest(c, "invalid company id")
	case errors.Is(err, errUnsupportedLanguage):
		return badRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, analysis.ErrCompanyNotFound):
		return notFound(c, "Company not found")
	case errors.Is(err, errStatementsRequired):
		return badRequest(c, "Financial statements required")
	case errors.Is(err, analysis.ErrNoData):
		return unprocessable(c, "no transaction data available")
	case errors.Is(err, analysis.ErrInvalidWindow):
		return badRequest(c, err.Error())
	default:
		slog.Error("analysis request failed", slog.String("path", c.Path()), slog.Any("error", err))
		return serverError(c)
	}
}

func companyProfile(company models.Company) ai.CompanyProfile {
	return ai.CompanyProfile{
		Name:          company.Name,
		Industry:      company.Industry,
		AnnualRevenue: company.AnnualRevenue,
	}
}

func fallbackInsights(language ai.Language) string {
	if language == ai.LanguageHindi {
		return "AI विश्लेषण अभी उपलब्ध नहीं है। ऊपर दिए गए स्कोर आपके वित्तीय विवरणों और लेनदेन से गणना किए गए हैं।"
	}
	return "AI insights are unavailable right now. The scores above are computed from your statements and transactions."
}
