package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"example.com/sme-finhealth/backend/internal/ai"
	"example.com/sme-finhealth/backend/internal/repository"
)

const (
	aiRequestFinancialInsights      = "financial_insights"
	aiRequestCostOptimization       = "cost_optimization"
	aiRequestProductRecommendations = "product_recommendations"
	aiRequestInvestorReport         = "investor_report"
	aiRequestTranslation            = "translation"
)

// aiJournal пишет каждое обращение к модели в ai_requests, включая неудачные.
type aiJournal struct {
	Store    AIRequestStore
	Provider string
	Model    string
}

func (j aiJournal) record(ctx context.Context, userID, companyID uuid.UUID, requestType string, exchange ai.Exchange, requestPayload, responsePayload []byte, err error) {
	if j.Store == nil {
		return
	}

	log := repository.AIRequestLog{
		UserID:          userID,
		CompanyID:       &companyID,
		RequestType:     requestType,
		Provider:        j.Provider,
		Model:           j.Model,
		Prompt:          exchange.Prompt,
		RequestPayload:  requestPayload,
		ResponsePayload: responsePayload,
		RawResponse:     string(exchange.Raw),
		Success:         err == nil,
	}
	if err != nil {
		errMsg := err.Error()
		log.ErrorMessage = &errMsg
	}

	if logErr := j.Store.LogRequest(ctx, log); logErr != nil {
		slog.Warn("ai request log failed",
			slog.String("request_type", requestType),
			slog.String("company_id", companyID.String()),
			slog.Any("error", logErr),
		)
	}
}
