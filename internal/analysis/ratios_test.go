package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratioDelta = 1e-9

func sampleBalanceSheet() BalanceSheet {
	return NewBalanceSheet(
		LineItems{"cash": 100, "bank": 50, "receivable": 30, "inventory": 20},
		LineItems{"equipment": 800},
		LineItems{"payable": 100},
		LineItems{"term loan": 400},
		LineItems{"share capital": 500},
	)
}

func sampleProfitLoss() ProfitLoss {
	return NewProfitLoss(
		LineItems{"sales": 1000},
		400,
		LineItems{"rent": 100, "salary": 200},
		LineItems{"misc expense": 100},
	)
}

// TestNewProfitLossDerivesTotals проверяет вывод итогов и прибыли.
func TestNewProfitLossDerivesTotals(t *testing.T) {
	pl := sampleProfitLoss()

	assert.Equal(t, 1000.0, pl.Revenue.TotalRevenue)
	assert.Equal(t, 800.0, pl.Expenses.TotalExpenses)
	assert.Equal(t, 600.0, pl.Profit.GrossProfit)
	assert.Equal(t, 300.0, pl.Profit.OperatingProfit)
	assert.Equal(t, 200.0, pl.Profit.NetProfit)
}

// TestNewBalanceSheetTotals проверяет агрегирование итогов баланса.
func TestNewBalanceSheetTotals(t *testing.T) {
	bs := sampleBalanceSheet()

	assert.Equal(t, 1000.0, bs.Assets.TotalAssets)
	assert.Equal(t, 500.0, bs.Liabilities.TotalLiabilities)
	assert.Equal(t, 500.0, bs.Equity.TotalEquity)
}

// TestLiquidityReferenceSheet проверяет эталонный пример ликвидности.
func TestLiquidityReferenceSheet(t *testing.T) {
	bs := BalanceSheet{
		Assets: Assets{CurrentAssets: LineItems{"cash": 100, "bank": 50, "receivable": 30, "inventory": 20}},
		Liabilities: Liabilities{
			CurrentLiabilities: LineItems{"payable": 100},
		},
	}

	liquidity := LiquidityFrom(bs)
	assert.InDelta(t, 2.0, liquidity.CurrentRatio, ratioDelta)
	assert.InDelta(t, 1.8, liquidity.QuickRatio, ratioDelta)
	assert.InDelta(t, 1.5, liquidity.CashRatio, ratioDelta)
}

// TestLiquidityZeroLiabilities проверяет, что нулевые обязательства дают нулевые коэффициенты.
func TestLiquidityZeroLiabilities(t *testing.T) {
	bs := BalanceSheet{
		Assets: Assets{CurrentAssets: LineItems{"cash": 100, "inventory": 20}},
	}

	assert.Equal(t, LiquidityRatios{}, LiquidityFrom(bs))
}

// TestComputeRatiosFullStatement проверяет все группы коэффициентов.
func TestComputeRatiosFullStatement(t *testing.T) {
	ratios := ComputeRatios(sampleBalanceSheet(), sampleProfitLoss())

	assert.InDelta(t, 60.0, ratios.Profitability.GrossProfitMargin, ratioDelta)
	assert.InDelta(t, 30.0, ratios.Profitability.OperatingProfitMargin, ratioDelta)
	assert.InDelta(t, 20.0, ratios.Profitability.NetProfitMargin, ratioDelta)
	assert.InDelta(t, 20.0, ratios.Profitability.ReturnOnAssets, ratioDelta)
	assert.InDelta(t, 40.0, ratios.Profitability.ReturnOnEquity, ratioDelta)

	assert.InDelta(t, 1.0, ratios.Leverage.DebtToEquity, ratioDelta)
	assert.InDelta(t, 50.0, ratios.Leverage.DebtToAssets, ratioDelta)
	assert.InDelta(t, 50.0, ratios.Leverage.EquityRatio, ratioDelta)

	assert.InDelta(t, 1.0, ratios.Efficiency.AssetTurnover, ratioDelta)
	assert.InDelta(t, 1000.0/30.0, ratios.Efficiency.ReceivablesTurnover, ratioDelta)
	assert.InDelta(t, 10.95, ratios.Efficiency.DaysSalesOutstanding, 1e-6)
	assert.InDelta(t, 20.0, ratios.Efficiency.InventoryTurnover, ratioDelta)
	assert.InDelta(t, 18.25, ratios.Efficiency.DaysInventoryOutstanding, ratioDelta)
}

// TestComputeRatiosEmptyStatements проверяет, что пустые отчеты дают нули, а не ошибку.
func TestComputeRatiosEmptyStatements(t *testing.T) {
	assert.Equal(t, RatioSet{}, ComputeRatios(BalanceSheet{}, ProfitLoss{}))
}

// TestComputeRatiosNegativeDenominators проверяет защиту от отрицательного капитала и выручки.
func TestComputeRatiosNegativeDenominators(t *testing.T) {
	bs := BalanceSheet{
		Assets:      Assets{TotalAssets: 100},
		Liabilities: Liabilities{TotalLiabilities: 300},
		Equity:      Equity{TotalEquity: -200},
	}
	pl := ProfitLoss{
		Revenue: Revenue{TotalRevenue: -50},
		Profit:  Profit{NetProfit: -80},
	}

	ratios := ComputeRatios(bs, pl)
	assert.Zero(t, ratios.Leverage.DebtToEquity)
	assert.Zero(t, ratios.Profitability.ReturnOnEquity)
	assert.Zero(t, ratios.Profitability.NetProfitMargin)
	assert.InDelta(t, -80.0, ratios.Profitability.ReturnOnAssets, ratioDelta)
	assert.InDelta(t, 300.0, ratios.Leverage.DebtToAssets, ratioDelta)
}

// TestComputeRatiosIdempotent проверяет побитовую повторяемость результата.
func TestComputeRatiosIdempotent(t *testing.T) {
	bs := sampleBalanceSheet()
	bs.Assets.CurrentAssets["petty cash"] = 0.1
	bs.Assets.CurrentAssets["bank deposit"] = 0.2
	bs.Assets.CurrentAssets["cash in transit"] = 0.3
	pl := sampleProfitLoss()

	first := ComputeRatios(bs, pl)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, ComputeRatios(bs, pl))
	}
}

// TestKeywordOverlapCountsInEveryCategory проверяет учет статьи во всех подходящих категориях.
func TestKeywordOverlapCountsInEveryCategory(t *testing.T) {
	bs := BalanceSheet{
		Assets: Assets{
			CurrentAssets: LineItems{"Bank Receivable Inventory": 60},
			TotalAssets:   60,
		},
		Liabilities: Liabilities{CurrentLiabilities: LineItems{"payable": 30}},
	}
	pl := ProfitLoss{
		Revenue:  Revenue{TotalRevenue: 120},
		Expenses: Expenses{CostOfGoodsSold: 60},
	}

	ratios := ComputeRatios(bs, pl)
	assert.InDelta(t, 2.0, ratios.Liquidity.CashRatio, ratioDelta)
	assert.InDelta(t, 0.0, ratios.Liquidity.QuickRatio, ratioDelta)
	assert.InDelta(t, 2.0, ratios.Efficiency.ReceivablesTurnover, ratioDelta)
	assert.InDelta(t, 1.0, ratios.Efficiency.InventoryTurnover, ratioDelta)
}

// TestSumMatchingIsCaseInsensitive проверяет регистронезависимый поиск подстроки.
func TestSumMatchingIsCaseInsensitive(t *testing.T) {
	items := LineItems{"CASH ON HAND": 10, "HDFC Bank": 5, "Trade Receivables": 7}

	assert.Equal(t, 15.0, items.SumMatching(cashKeywords...))
	assert.Equal(t, 7.0, items.SumMatching(receivableKeywords...))
	assert.Equal(t, 22.0, items.Sum())
	assert.Zero(t, LineItems(nil).Sum())
}

// TestNonFiniteAmountsCountAsZero проверяет, что NaN и бесконечности не ломают суммы и коэффициенты.
func TestNonFiniteAmountsCountAsZero(t *testing.T) {
	items := LineItems{"cash": math.NaN(), "bank": 5, "receivable": math.Inf(1), "inventory": math.Inf(-1)}

	assert.Equal(t, 5.0, items.Sum())
	assert.Equal(t, 5.0, items.SumMatching(cashKeywords...))

	statement := NewProfitLoss(LineItems{"sales": 1000}, math.NaN(), LineItems{"rent": math.Inf(1)}, nil)
	assert.Equal(t, 1000.0, statement.Revenue.TotalRevenue)
	assert.Zero(t, statement.Expenses.CostOfGoodsSold)
	assert.Equal(t, 0.0, statement.Expenses.TotalExpenses)
	assert.Equal(t, 1000.0, statement.Profit.NetProfit)

	sheet := NewBalanceSheet(items, nil, LineItems{"payable": 5}, nil, nil)
	ratios := ComputeRatios(sheet, statement)
	assert.Equal(t, 1.0, ratios.Liquidity.CurrentRatio)
}
