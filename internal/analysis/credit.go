package analysis

import (
	"fmt"
	"math"
	"time"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 900

	strengthPercent = 80
	weaknessPercent = 60

	// Минимальный объем выборки, после которого история платежей считается полной.
	minPaymentSample = 10
)

const (
	ComponentPaymentHistory    = "payment_history"
	ComponentCreditUtilization = "credit_utilization"
	ComponentLiquidity         = "liquidity"
	ComponentProfitability     = "profitability"
	ComponentBusinessStability = "business_stability"
)

type RiskCategory string

const (
	RiskLow      RiskCategory = "Low"
	RiskMedium   RiskCategory = "Medium"
	RiskHigh     RiskCategory = "High"
	RiskCritical RiskCategory = "Critical"
)

// Company содержит данные компании, которые нужны для скоринга.
type Company struct {
	Name          string     `json:"name"`
	Industry      string     `json:"industry,omitempty"`
	FoundedDate   *time.Time `json:"founded_date,omitempty"`
	AnnualRevenue *float64   `json:"annual_revenue,omitempty"`
}

type ComponentScore struct {
	Score   int            `json:"score"`
	Max     int            `json:"max"`
	Details map[string]any `json:"details"`
}

type CreditScoreResult struct {
	Score                  int                       `json:"score"`
	Grade                  string                    `json:"grade"`
	RiskCategory           RiskCategory              `json:"risk_category"`
	Breakdown              map[string]ComponentScore `json:"breakdown"`
	Strengths              []string                  `json:"strengths"`
	Weaknesses             []string                  `json:"weaknesses"`
	ImprovementSuggestions []string                  `json:"improvement_suggestions"`
}

// Максимумы компонентов кредитного скоринга, в порядке вывода.
var CreditComponents = []struct {
	Name string
	Max  int
}{
	{ComponentPaymentHistory, 250},
	{ComponentCreditUtilization, 200},
	{ComponentLiquidity, 200},
	{ComponentProfitability, 150},
	{ComponentBusinessStability, 100},
}

const (
	paymentHistoryBaseline = 250
	paymentHistoryNoData   = 150
	paymentHistoryPenalty  = 50
	liquidityCap           = 200
	stabilityCap           = 100
	unknownStabilityPoints = 20
)

var CreditUtilizationLadder = Ladder{
	Steps: []Step{
		{Cmp: Equal, Bound: 0, Points: 200, Status: "No debt - excellent"},
		{Cmp: Below, Bound: 0.5, Points: 180, Status: "Very low debt - excellent"},
		{Cmp: Below, Bound: 1.0, Points: 160, Status: "Moderate debt - good"},
		{Cmp: Below, Bound: 2.0, Points: 120, Status: "High debt - concerning"},
	},
	Else:       80,
	ElseStatus: "Very high debt - risky",
}

var CurrentRatioLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 2.0, Points: 100, Status: "Excellent"},
		{Cmp: AtLeast, Bound: 1.5, Points: 80, Status: "Good"},
		{Cmp: AtLeast, Bound: 1.0, Points: 60, Status: "Adequate"},
	},
	Else:       30,
	ElseStatus: "Weak",
}

var QuickRatioLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 1.5, Points: 100, Status: "Excellent"},
		{Cmp: AtLeast, Bound: 1.0, Points: 80, Status: "Good"},
		{Cmp: AtLeast, Bound: 0.75, Points: 60, Status: "Adequate"},
	},
	Else:       30,
	ElseStatus: "Weak",
}

var NetMarginCreditLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 20, Points: 150, Status: "Excellent profitability"},
		{Cmp: AtLeast, Bound: 15, Points: 130, Status: "Very good profitability"},
		{Cmp: AtLeast, Bound: 10, Points: 110, Status: "Good profitability"},
		{Cmp: AtLeast, Bound: 5, Points: 80, Status: "Moderate profitability"},
		{Cmp: Above, Bound: 0, Points: 50, Status: "Low profitability"},
	},
	Else:       0,
	ElseStatus: "Unprofitable",
}

var YearsInBusinessLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 10, Points: 50, Status: "Well-established"},
		{Cmp: AtLeast, Bound: 5, Points: 40, Status: "Established"},
		{Cmp: AtLeast, Bound: 3, Points: 30, Status: "Growing"},
		{Cmp: AtLeast, Bound: 1, Points: 20, Status: "Young company"},
	},
	Else:       10,
	ElseStatus: "Startup",
}

var RevenueSizeLadder = Ladder{
	Steps: []Step{
		{Cmp: AtLeast, Bound: 10_000_000, Points: 50, Status: "Large SME"},
		{Cmp: AtLeast, Bound: 5_000_000, Points: 40, Status: "Medium SME"},
		{Cmp: AtLeast, Bound: 1_000_000, Points: 30, Status: "Small SME"},
	},
	Else:       20,
	ElseStatus: "Micro SME",
}

var CreditGradeBands = []GradeBand{
	{Min: 800, Grade: "A+", Risk: RiskLow},
	{Min: 750, Grade: "A", Risk: RiskLow},
	{Min: 700, Grade: "B+", Risk: RiskLow},
	{Min: 650, Grade: "B", Risk: RiskMedium},
	{Min: 600, Grade: "C+", Risk: RiskMedium},
	{Min: 550, Grade: "C", Risk: RiskMedium},
	{Min: 500, Grade: "D+", Risk: RiskHigh},
}

var creditGradeFloor = GradeBand{Min: MinCreditScore, Grade: "D", Risk: RiskHigh}

var improvementSuggestions = map[string]string{
	ComponentPaymentHistory:    "Maintain consistent payment schedules to vendors and creditors",
	ComponentCreditUtilization: "Reduce debt levels or increase equity to improve leverage ratios",
	ComponentLiquidity:         "Build cash reserves and improve working capital management",
	ComponentProfitability:     "Focus on increasing profit margins through cost optimization or revenue growth",
	ComponentBusinessStability: "Continue building business track record and growing revenue",
}

// ComputeCreditScore рассчитывает кредитный рейтинг 300-900 по пяти компонентам.
// company == nil означает, что компания не найдена вызывающей стороной.
func ComputeCreditScore(company *Company, ratios RatioSet, sample []Transaction, now time.Time) (CreditScoreResult, error) {
	if company == nil {
		return CreditScoreResult{}, ErrCompanyNotFound
	}

	scores := map[string]ComponentScore{}
	add := func(name string, points int, details map[string]any) {
		scores[name] = ComponentScore{Score: points, Max: componentMax(name), Details: details}
	}

	points, details := PaymentHistoryScore(sample)
	add(ComponentPaymentHistory, points, details)

	points, details = CreditUtilizationScore(ratios.Leverage)
	add(ComponentCreditUtilization, points, details)

	points, details = LiquidityScore(ratios.Liquidity)
	add(ComponentLiquidity, points, details)

	points, details = ProfitabilityScore(ratios.Profitability)
	add(ComponentProfitability, points, details)

	points, details = BusinessStabilityScore(*company, now)
	add(ComponentBusinessStability, points, details)

	total := 0
	for _, component := range CreditComponents {
		total += scores[component.Name].Score
	}
	total = clamp(total, MinCreditScore, MaxCreditScore)

	band := CreditGrade(total)
	strengths, weaknesses := ClassifyComponents(scores)

	return CreditScoreResult{
		Score:                  total,
		Grade:                  band.Grade,
		RiskCategory:           band.Risk,
		Breakdown:              scores,
		Strengths:              strengths,
		Weaknesses:             weaknesses,
		ImprovementSuggestions: ImprovementSuggestions(weaknesses),
	}, nil
}

// PaymentHistoryScore дает грубую оценку истории платежей по объему выборки транзакций.
func PaymentHistoryScore(sample []Transaction) (int, map[string]any) {
	if len(sample) == 0 {
		return paymentHistoryNoData, map[string]any{"reason": "Limited payment history"}
	}

	score := paymentHistoryBaseline
	details := map[string]any{}
	if len(sample) < minPaymentSample {
		score -= paymentHistoryPenalty
		details["limited_history"] = "Few transactions recorded"
	}
	return score, details
}

// CreditUtilizationScore оценивает долговую нагрузку по debt_to_equity.
func CreditUtilizationScore(leverage LeverageRatios) (int, map[string]any) {
	points, status := CreditUtilizationLadder.Evaluate(leverage.DebtToEquity)
	return points, map[string]any{
		"status":               status,
		"debt_to_equity_ratio": leverage.DebtToEquity,
	}
}

// LiquidityScore суммирует баллы за current и quick ratio.
func LiquidityScore(liquidity LiquidityRatios) (int, map[string]any) {
	currentPoints, currentStatus := CurrentRatioLadder.Evaluate(liquidity.CurrentRatio)
	quickPoints, quickStatus := QuickRatioLadder.Evaluate(liquidity.QuickRatio)

	return min(currentPoints+quickPoints, liquidityCap), map[string]any{
		"current_ratio_status": currentStatus,
		"quick_ratio_status":   quickStatus,
		"current_ratio":        liquidity.CurrentRatio,
		"quick_ratio":          liquidity.QuickRatio,
	}
}

// ProfitabilityScore оценивает чистую маржу.
func ProfitabilityScore(profitability ProfitabilityRatios) (int, map[string]any) {
	points, status := NetMarginCreditLadder.Evaluate(profitability.NetProfitMargin)
	return points, map[string]any{
		"status":            status,
		"net_profit_margin": profitability.NetProfitMargin,
	}
}

// BusinessStabilityScore оценивает возраст бизнеса и размер выручки.
func BusinessStabilityScore(company Company, now time.Time) (int, map[string]any) {
	details := map[string]any{}
	score := 0

	if company.FoundedDate != nil {
		years := YearsInBusiness(*company.FoundedDate, now)
		points, status := YearsInBusinessLadder.Evaluate(years)
		score += points
		details["years_status"] = status
		details["years_in_business"] = math.Round(years*10) / 10
	} else {
		score += unknownStabilityPoints
		details["years_status"] = "Unknown"
	}

	// Нулевая выручка трактуется как неизвестная.
	if company.AnnualRevenue != nil && *company.AnnualRevenue != 0 {
		points, status := RevenueSizeLadder.Evaluate(*company.AnnualRevenue)
		score += points
		details["size_status"] = status
	} else {
		score += unknownStabilityPoints
	}

	return min(score, stabilityCap), details
}

// YearsInBusiness считает полные прошедшие дни и делит на 365.
func YearsInBusiness(founded, now time.Time) float64 {
	days := math.Floor(now.Sub(founded).Hours() / 24)
	return days / daysPerYear
}

// CreditGrade возвращает оценку и категорию риска для итогового балла.
func CreditGrade(score int) GradeBand {
	return lookupBand(CreditGradeBands, score, creditGradeFloor)
}

// ClassifyComponents делит компоненты на сильные (>=80% максимума) и слабые (<60%).
func ClassifyComponents(scores map[string]ComponentScore) ([]string, []string) {
	strengths := make([]string, 0)
	weaknesses := make([]string, 0)

	for _, component := range CreditComponents {
		score, ok := scores[component.Name]
		if !ok || score.Max <= 0 {
			continue
		}
		if score.Score*100 >= strengthPercent*score.Max {
			strengths = append(strengths, component.Name)
		}
		if score.Score*100 < weaknessPercent*score.Max {
			weaknesses = append(weaknesses, component.Name)
		}
	}

	return strengths, weaknesses
}

// ImprovementSuggestions подбирает рекомендацию для каждого слабого компонента.
func ImprovementSuggestions(weaknesses []string) []string {
	suggestions := make([]string, 0, len(weaknesses))
	for _, weakness := range weaknesses {
		if text, ok := improvementSuggestions[weakness]; ok {
			suggestions = append(suggestions, text)
			continue
		}
		suggestions = append(suggestions, fmt.Sprintf("Improve %s", weakness))
	}
	return suggestions
}

func componentMax(name string) int {
	for _, component := range CreditComponents {
		if component.Name == name {
			return component.Max
		}
	}
	return 0
}

func clamp(value, low, high int) int {
	return max(low, min(value, high))
}
