package analysis

const MaxHealthScore = 100

var HealthLiquidityLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 2.0, Points: 25},
		{Cmp: AtLeast, Bound: 1.5, Points: 20},
		{Cmp: AtLeast, Bound: 1.0, Points: 15},
	},
	Else: 5,
}

var HealthProfitabilityLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 20, Points: 30},
		{Cmp: AtLeast, Bound: 10, Points: 20},
		{Cmp: AtLeast, Bound: 5, Points: 15},
		{Cmp: Above, Bound: 0, Points: 10},
	},
	Else: 0,
}

// Меньше долга, больше баллов.
var HealthLeverageLadder = Ladder{
	Steps: []Step{
		{Cmp: AtMost, Bound: 0.5, Points: 20},
		{Cmp: AtMost, Bound: 1.0, Points: 15},
		{Cmp: AtMost, Bound: 2.0, Points: 10},
	},
	Else: 5,
}

var HealthEfficiencyLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 2.0, Points: 15},
		{Cmp: AtLeast, Bound: 1.0, Points: 10},
	},
	Else: 5,
}

var HealthCashFlowLadder = Ladder{
	Steps: []Step{
		{Cmp: Above, Bound: 0, Points: 10},
	},
	Else: 0,
}

var HealthGradeBands = []GradeBand{
	{Min: 90, Grade: "A+"},
	{Min: 80, Grade: "A"},
	{Min: 70, Grade: "B+"},
	{Min: 60, Grade: "B"},
	{Min: 50, Grade: "C+"},
	{Min: 40, Grade: "C"},
}

var healthGradeFloor = GradeBand{Min: 0, Grade: "D"}

type HealthBreakdown struct {
	Liquidity     int `json:"liquidity"`
	Profitability int `json:"profitability"`
	Leverage      int `json:"leverage"`
	Efficiency    int `json:"efficiency"`
	CashFlow      int `json:"cash_flow"`
}

// Total возвращает сумму компонентов.
func (b HealthBreakdown) Total() int {
	return b.Liquidity + b.Profitability + b.Leverage + b.Efficiency + b.CashFlow
}

type HealthScoreResult struct {
	TotalScore int             `json:"total_score"`
	Grade      string          `json:"grade"`
	Breakdown  HealthBreakdown `json:"breakdown"`
	MaxScore   int             `json:"max_score"`
}

// ComputeHealthScore рассчитывает интегральный индекс здоровья 0-100.
// cashFlow == nil (нет данных о транзакциях) дает 0 баллов за денежный поток.
func ComputeHealthScore(ratios RatioSet, cashFlow *CashFlowAnalysis) HealthScoreResult {
	netCashFlow := 0.0
	if cashFlow != nil {
		netCashFlow = cashFlow.TotalNetCashFlow
	}

	breakdown := HealthBreakdown{
		Liquidity:     HealthLiquidityLadder.Points(ratios.Liquidity.CurrentRatio),
		Profitability: HealthProfitabilityLadder.Points(ratios.Profitability.NetProfitMargin),
		Leverage:      HealthLeverageLadder.Points(ratios.Leverage.DebtToEquity),
		Efficiency:    HealthEfficiencyLadder.Points(ratios.Efficiency.AssetTurnover),
		CashFlow:      HealthCashFlowLadder.Points(netCashFlow),
	}

	total := clamp(breakdown.Total(), 0, MaxHealthScore)

	return HealthScoreResult{
		TotalScore: total,
		Grade:      HealthGrade(total),
		Breakdown:  breakdown,
		MaxScore:   MaxHealthScore,
	}
}

// HealthGrade возвращает буквенную оценку индекса здоровья.
func HealthGrade(total int) string {
	return lookupBand(HealthGradeBands, total, healthGradeFloor).Grade
}
