package analysis

import (
	"errors"
	"time"
)

type AssessmentInput struct {
	Company           *Company      `json:"company"`
	BalanceSheet      BalanceSheet  `json:"balance_sheet"`
	ProfitLoss        ProfitLoss    `json:"profit_loss"`
	Transactions      []Transaction `json:"transactions"`
	TransactionSample []Transaction `json:"transaction_sample,omitempty"`
	WindowMonths      int           `json:"window_months"`
}

type Assessment struct {
	Ratios      RatioSet          `json:"ratios"`
	CashFlow    *CashFlowAnalysis `json:"cash_flow,omitempty"`
	CreditScore CreditScoreResult `json:"credit_score"`
	HealthScore HealthScoreResult `json:"health_score"`
}

// Assess прогоняет весь конвейер: коэффициенты, денежный поток, кредитный скоринг и индекс здоровья.
// Отсутствие транзакций в окне не является ошибкой: индекс здоровья получает 0 за денежный поток.
func Assess(input AssessmentInput, now time.Time) (Assessment, error) {
	ratios := ComputeRatios(input.BalanceSheet, input.ProfitLoss)

	var cashFlow *CashFlowAnalysis
	analysis, err := AnalyzeCashFlow(input.Transactions, input.WindowMonths, now)
	switch {
	case err == nil:
		cashFlow = &analysis
	case errors.Is(err, ErrNoData):
	default:
		return Assessment{}, err
	}

	sample := input.TransactionSample
	if sample == nil {
		sample = input.Transactions
	}

	credit, err := ComputeCreditScore(input.Company, ratios, sample, now)
	if err != nil {
		return Assessment{}, err
	}

	return Assessment{
		Ratios:      ratios,
		CashFlow:    cashFlow,
		CreditScore: credit,
		HealthScore: ComputeHealthScore(ratios, cashFlow),
	}, nil
}
