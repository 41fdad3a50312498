package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAssessFullPipeline проверяет сквозной прогон конвейера.
func TestAssessFullPipeline(t *testing.T) {
	founded := daysAgo(6 * 365)
	input := AssessmentInput{
		Company:      &Company{Name: "Acme", FoundedDate: &founded, AnnualRevenue: floatPtr(6_000_000)},
		BalanceSheet: sampleBalanceSheet(),
		ProfitLoss:   sampleProfitLoss(),
		Transactions: []Transaction{
			{Date: daysAgo(10), Amount: 1000, Category: "revenue"},
			{Date: daysAgo(5), Amount: -400, Category: "expense"},
		},
		WindowMonths: 12,
	}

	result, err := Assess(input, testNow)
	require.NoError(t, err)

	require.NotNil(t, result.CashFlow)
	assert.Equal(t, 600.0, result.CashFlow.TotalNetCashFlow)
	assert.Equal(t, 10, result.HealthScore.Breakdown.CashFlow)
	assert.Equal(t, 200, result.CreditScore.Breakdown[ComponentPaymentHistory].Score)
	assert.Equal(t, 80, result.CreditScore.Breakdown[ComponentBusinessStability].Score)
	assert.Equal(t, ComputeRatios(input.BalanceSheet, input.ProfitLoss), result.Ratios)
}

// TestAssessWithoutTransactions проверяет, что нехватка транзакций не прерывает оценку.
func TestAssessWithoutTransactions(t *testing.T) {
	result, err := Assess(AssessmentInput{Company: &Company{Name: "Acme"}, WindowMonths: 12}, testNow)
	require.NoError(t, err)

	assert.Nil(t, result.CashFlow)
	assert.Zero(t, result.HealthScore.Breakdown.CashFlow)
	assert.Equal(t, 150, result.CreditScore.Breakdown[ComponentPaymentHistory].Score)
}

// TestAssessPropagatesErrors проверяет проброс ошибок окна и компании.
func TestAssessPropagatesErrors(t *testing.T) {
	_, err := Assess(AssessmentInput{Company: &Company{Name: "Acme"}}, testNow)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Assess(AssessmentInput{WindowMonths: 12}, testNow)
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}
