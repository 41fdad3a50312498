package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComputeHealthScorePerfect проверяет максимальный индекс.
func TestComputeHealthScorePerfect(t *testing.T) {
	ratios := RatioSet{
		Liquidity:     LiquidityRatios{CurrentRatio: 2.0},
		Profitability: ProfitabilityRatios{NetProfitMargin: 20},
		Leverage:      LeverageRatios{DebtToEquity: 0.5},
		Efficiency:    EfficiencyRatios{AssetTurnover: 2.0},
	}
	cashFlow := &CashFlowAnalysis{TotalNetCashFlow: 1}

	result := ComputeHealthScore(ratios, cashFlow)

	assert.Equal(t, HealthBreakdown{Liquidity: 25, Profitability: 30, Leverage: 20, Efficiency: 15, CashFlow: 10}, result.Breakdown)
	assert.Equal(t, 100, result.TotalScore)
	assert.Equal(t, "A+", result.Grade)
	assert.Equal(t, MaxHealthScore, result.MaxScore)
}

// TestComputeHealthScoreNoCashFlow проверяет, что отсутствие данных о потоке дает 0 баллов.
func TestComputeHealthScoreNoCashFlow(t *testing.T) {
	result := ComputeHealthScore(RatioSet{}, nil)

	assert.Equal(t, HealthBreakdown{Liquidity: 5, Profitability: 0, Leverage: 20, Efficiency: 5, CashFlow: 0}, result.Breakdown)
	assert.Equal(t, 30, result.TotalScore)
	assert.Equal(t, "D", result.Grade)
}

// TestComputeHealthScoreNegativeCashFlow проверяет отсутствие баллов при нулевом и отрицательном потоке.
func TestComputeHealthScoreNegativeCashFlow(t *testing.T) {
	for _, net := range []float64{0, -500} {
		result := ComputeHealthScore(RatioSet{}, &CashFlowAnalysis{TotalNetCashFlow: net})
		assert.Zero(t, result.Breakdown.CashFlow, "net %v", net)
	}
}

// TestHealthLadders проверяет границы каждой шкалы индекса здоровья.
func TestHealthLadders(t *testing.T) {
	cases := []struct {
		name   string
		ladder Ladder
		value  float64
		want   int
	}{
		{"liquidity 2.0", HealthLiquidityLadder, 2.0, 25},
		{"liquidity 1.5", HealthLiquidityLadder, 1.5, 20},
		{"liquidity 1.0", HealthLiquidityLadder, 1.0, 15},
		{"liquidity 0.99", HealthLiquidityLadder, 0.99, 5},
		{"profitability 20", HealthProfitabilityLadder, 20, 30},
		{"profitability 10", HealthProfitabilityLadder, 10, 20},
		{"profitability 5", HealthProfitabilityLadder, 5, 15},
		{"profitability 0.1", HealthProfitabilityLadder, 0.1, 10},
		{"profitability 0", HealthProfitabilityLadder, 0, 0},
		{"leverage 0.5", HealthLeverageLadder, 0.5, 20},
		{"leverage 0.51", HealthLeverageLadder, 0.51, 15},
		{"leverage 1.0", HealthLeverageLadder, 1.0, 15},
		{"leverage 2.0", HealthLeverageLadder, 2.0, 10},
		{"leverage 2.01", HealthLeverageLadder, 2.01, 5},
		{"efficiency 2.0", HealthEfficiencyLadder, 2.0, 15},
		{"efficiency 1.0", HealthEfficiencyLadder, 1.0, 10},
		{"efficiency 0.99", HealthEfficiencyLadder, 0.99, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ladder.Points(tc.value))
		})
	}
}

// TestHealthComponentMaximaSumToMax проверяет, что максимумы шкал дают ровно 100.
func TestHealthComponentMaximaSumToMax(t *testing.T) {
	total := HealthLiquidityLadder.Max() +
		HealthProfitabilityLadder.Max() +
		HealthLeverageLadder.Max() +
		HealthEfficiencyLadder.Max() +
		HealthCashFlowLadder.Max()
	require.Equal(t, MaxHealthScore, total)
}

// TestHealthGradeBoundaries проверяет каждую границу оценки.
func TestHealthGradeBoundaries(t *testing.T) {
	cases := map[int]string{
		100: "A+", 90: "A+", 89: "A", 80: "A", 79: "B+", 70: "B+",
		69: "B", 60: "B", 59: "C+", 50: "C+", 49: "C", 40: "C", 39: "D", 0: "D",
	}

	for score, want := range cases {
		assert.Equal(t, want, HealthGrade(score), "score %d", score)
	}
}
