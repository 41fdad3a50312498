package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.AddDate(0, 0, -days)
}

// TestAnalyzeCashFlowPositiveOperating проверяет эталонный пример без burn rate.
func TestAnalyzeCashFlowPositiveOperating(t *testing.T) {
	txns := []Transaction{
		{Date: daysAgo(10), Amount: 1000, Category: "revenue", Type: TransactionCredit},
		{Date: daysAgo(5), Amount: -400, Category: "expense", Type: TransactionDebit},
	}

	result, err := AnalyzeCashFlow(txns, 12, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.OperatingCashFlow.Inflows)
	assert.Equal(t, 400.0, result.OperatingCashFlow.Outflows)
	assert.Equal(t, 600.0, result.OperatingCashFlow.Net)
	assert.Equal(t, 600.0, result.TotalNetCashFlow)
	assert.Nil(t, result.MonthlyBurnRate)
}

// TestAnalyzeCashFlowBurnRate проверяет расчет burn rate при отрицательном операционном потоке.
func TestAnalyzeCashFlowBurnRate(t *testing.T) {
	txns := []Transaction{
		{Date: daysAgo(20), Amount: 100, Category: "Sales Revenue"},
		{Date: daysAgo(15), Amount: -400, Category: "Salary"},
		{Date: daysAgo(1), Amount: 300, Category: "Operating cost"},
	}

	result, err := AnalyzeCashFlow(txns, 3, testNow)
	require.NoError(t, err)

	assert.Equal(t, 700.0, result.OperatingCashFlow.Outflows)
	assert.Equal(t, -600.0, result.OperatingCashFlow.Net)
	require.NotNil(t, result.MonthlyBurnRate)
	assert.Equal(t, 200.0, *result.MonthlyBurnRate)
}

// TestAnalyzeCashFlowBuckets проверяет инвестиционный и финансовый потоки.
func TestAnalyzeCashFlowBuckets(t *testing.T) {
	txns := []Transaction{
		{Date: daysAgo(30), Amount: 2000, Category: "revenue"},
		{Date: daysAgo(25), Amount: -250, Category: "Equipment purchase"},
		{Date: daysAgo(20), Amount: 500, Category: "Loan disbursal"},
		{Date: daysAgo(15), Amount: 999, Category: "misc"},
		{Date: daysAgo(10), Amount: 50, Category: ""},
	}

	result, err := AnalyzeCashFlow(txns, 12, testNow)
	require.NoError(t, err)

	assert.Equal(t, 250.0, result.InvestingCashFlow.Outflows)
	assert.Equal(t, -250.0, result.InvestingCashFlow.Net)
	assert.Equal(t, 500.0, result.FinancingCashFlow.Inflows)
	assert.Equal(t, 500.0, result.FinancingCashFlow.Net)
	assert.Equal(t, 2250.0, result.TotalNetCashFlow)
}

// TestAnalyzeCashFlowNoData проверяет ошибку при отсутствии транзакций в окне.
func TestAnalyzeCashFlowNoData(t *testing.T) {
	cases := map[string][]Transaction{
		"empty": nil,
		"outside window": {
			{Date: daysAgo(12*30 + 1), Amount: 1000, Category: "revenue"},
		},
	}

	for name, txns := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := AnalyzeCashFlow(txns, 12, testNow)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

// TestAnalyzeCashFlowWindowBoundaryInclusive проверяет, что начало окна включается.
func TestAnalyzeCashFlowWindowBoundaryInclusive(t *testing.T) {
	txns := []Transaction{
		{Date: WindowStart(testNow, 1), Amount: 10, Category: "revenue"},
	}

	result, err := AnalyzeCashFlow(txns, 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.OperatingCashFlow.Inflows)
}

// TestAnalyzeCashFlowUnclassifiedStillCountsAsData проверяет, что транзакция без корзины не дает ErrNoData.
func TestAnalyzeCashFlowUnclassifiedStillCountsAsData(t *testing.T) {
	txns := []Transaction{{Date: daysAgo(2), Amount: 10, Category: "transfer"}}

	result, err := AnalyzeCashFlow(txns, 12, testNow)
	require.NoError(t, err)
	assert.Zero(t, result.TotalNetCashFlow)
	assert.Nil(t, result.MonthlyBurnRate)
}

// TestAnalyzeCashFlowInvalidWindow проверяет отказ при неположительном окне.
func TestAnalyzeCashFlowInvalidWindow(t *testing.T) {
	_, err := AnalyzeCashFlow(nil, 0, testNow)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

// TestClassifyCategoryOrder проверяет приоритет правил классификации.
func TestClassifyCategoryOrder(t *testing.T) {
	cases := []struct {
		category string
		want     CashFlowBucket
	}{
		{"Revenue", BucketOperatingInflow},
		{"revenue cost adjustment", BucketOperatingInflow},
		{"Salary", BucketOperatingOutflow},
		{"asset expense", BucketOperatingOutflow},
		{"equity investment", BucketInvestingOutflow},
		{"Bank LOAN", BucketFinancingInflow},
		{"financing", BucketFinancingInflow},
		{"transfer", BucketNone},
		{"   ", BucketNone},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyCategory(tc.category), tc.category)
	}
}

// TestAnalyzeCashFlowSkipsNonFiniteAmounts проверяет пропуск NaN и бесконечных сумм.
func TestAnalyzeCashFlowSkipsNonFiniteAmounts(t *testing.T) {
	txns := []Transaction{
		{Date: daysAgo(3), Amount: math.NaN(), Category: "revenue", Type: TransactionCredit},
		{Date: daysAgo(2), Amount: math.Inf(-1), Category: "expense", Type: TransactionDebit},
		{Date: daysAgo(1), Amount: 250, Category: "revenue", Type: TransactionCredit},
	}

	result, err := AnalyzeCashFlow(txns, 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, 250.0, result.OperatingCashFlow.Inflows)
	assert.Zero(t, result.OperatingCashFlow.Outflows)
	assert.Equal(t, 250.0, result.TotalNetCashFlow)

	_, err = AnalyzeCashFlow(txns[:2], 1, testNow)
	assert.ErrorIs(t, err, ErrNoData)
}
