package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/repository"
)

const (
	defaultStatsMonths = 6
	maxStatsMonths     = 24
)

type StatsStore interface {
	Overview(ctx context.Context, userID uuid.UUID) (repository.OverviewStats, error)
	LatestScores(ctx context.Context, userID uuid.UUID) ([]repository.CompanyScore, error)
	MonthlyCashFlow(ctx context.Context, companyID uuid.UUID, months int) ([]repository.MonthlyCashFlow, error)
}

var _ StatsStore = (*repository.StatsRepository)(nil)

type StatsHandler struct {
	Stats     StatsStore
	Companies CompanyStore
}

// NewStatsHandler создает обработчик статистики.
func NewStatsHandler(stats StatsStore, companies CompanyStore) *StatsHandler {
	return &StatsHandler{Stats: stats, Companies: companies}
}

type OverviewResponse struct {
	Companies          int                    `json:"companies"`
	Statements         int                    `json:"statements"`
	Transactions       int                    `json:"transactions"`
	ScoredCompanies    int                    `json:"scored_companies"`
	AverageCreditScore *float64               `json:"average_credit_score"`
	LatestScores       []CompanyScoreResponse `json:"latest_scores"`
}

type CompanyScoreResponse struct {
	CompanyID    uuid.UUID `json:"company_id"`
	Name         string    `json:"name"`
	Industry     string    `json:"industry"`
	Score        *int      `json:"score"`
	Grade        *string   `json:"grade"`
	CalculatedAt *string   `json:"calculated_at"`
}

type MonthlyCashFlowResponse struct {
	CompanyID uuid.UUID             `json:"company_id"`
	Months    []MonthlyCashFlowItem `json:"months"`
}

type MonthlyCashFlowItem struct {
	Month    string  `json:"month"`
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
	Net      float64 `json:"net"`
}

// Overview возвращает сводку по компаниям пользователя.
func (h *StatsHandler) Overview(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	stats, err := h.Stats.Overview(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	scores, err := h.Stats.LatestScores(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	latest := make([]CompanyScoreResponse, 0, len(scores))
	for _, score := range scores {
		item := CompanyScoreResponse{
			CompanyID: score.CompanyID,
			Name:      score.Name,
			Industry:  score.Industry,
			Score:     score.Score,
			Grade:     score.Grade,
		}
		if score.CalculatedAt != nil {
			formatted := score.CalculatedAt.Format(timeLayout)
			item.CalculatedAt = &formatted
		}
		latest = append(latest, item)
	}

	return c.JSON(http.StatusOK, OverviewResponse{
		Companies:          stats.Companies,
		Statements:         stats.Statements,
		Transactions:       stats.Transactions,
		ScoredCompanies:    stats.ScoredCompanies,
		AverageCreditScore: stats.AverageCreditScore,
		LatestScores:       latest,
	})
}

// MonthlyCashFlow возвращает помесячные поступления и списания компании.
func (h *StatsHandler) MonthlyCashFlow(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	companyID, err := parseCompanyID(c)
	if err != nil {
		return badRequest(c, "invalid company id")
	}

	if _, err := h.Companies.GetByID(c.Request().Context(), userID, companyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Company not found")
		}
		return serverError(c)
	}

	months := defaultStatsMonths
	if raw := c.QueryParam("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return badRequest(c, "invalid months")
		}
		if parsed > maxStatsMonths {
			parsed = maxStatsMonths
		}
		months = parsed
	}

	items, err := h.Stats.MonthlyCashFlow(c.Request().Context(), companyID, months)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid months")
		}
		return serverError(c)
	}

	response := make([]MonthlyCashFlowItem, 0, len(items))
	for _, item := range items {
		response = append(response, MonthlyCashFlowItem{
			Month:    item.Month.Format("2006-01"),
			Inflows:  item.Inflows,
			Outflows: item.Outflows,
			Net:      item.Inflows - item.Outflows,
		})
	}

	return c.JSON(http.StatusOK, MonthlyCashFlowResponse{CompanyID: companyID, Months: response})
}
