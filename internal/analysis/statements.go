package analysis

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItems хранит статьи отчета: название -> сумма.
type LineItems map[string]float64

// Sum возвращает сумму всех статей.
func (l LineItems) Sum() float64 {
	return sumDecimal(l, func(string) bool { return true })
}

// SumMatching суммирует статьи, в названии которых встречается хотя бы одно из ключевых слов.
func (l LineItems) SumMatching(keywords ...string) float64 {
	return sumDecimal(l, func(label string) bool {
		return containsAny(label, keywords)
	})
}

// sumDecimal складывает значения в decimal, чтобы результат не зависел от порядка обхода map.
func sumDecimal(items LineItems, include func(string) bool) float64 {
	total := decimal.Zero
	for label, amount := range items {
		if !include(label) {
			continue
		}
		total = total.Add(toDecimal(amount))
	}
	return total.InexactFloat64()
}

// IsFinite сообщает, что сумма не NaN и не бесконечность.
func IsFinite(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// toDecimal переводит сумму в decimal; NaN и бесконечности считаются нулем.
func toDecimal(amount float64) decimal.Decimal {
	if !IsFinite(amount) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount)
}

func containsAny(label string, keywords []string) bool {
	lowered := strings.ToLower(label)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

type BalanceSheet struct {
	Assets      Assets      `json:"assets"`
	Liabilities Liabilities `json:"liabilities"`
	Equity      Equity      `json:"equity"`
}

type Assets struct {
	CurrentAssets LineItems `json:"current_assets"`
	FixedAssets   LineItems `json:"fixed_assets"`
	TotalAssets   float64   `json:"total_assets"`
}

type Liabilities struct {
	CurrentLiabilities  LineItems `json:"current_liabilities"`
	LongTermLiabilities LineItems `json:"long_term_liabilities"`
	TotalLiabilities    float64   `json:"total_liabilities"`
}

type Equity struct {
	Items       LineItems `json:"items"`
	TotalEquity float64   `json:"total_equity"`
}

// NewBalanceSheet собирает баланс и рассчитывает итоговые поля.
func NewBalanceSheet(currentAssets, fixedAssets, currentLiabilities, longTermLiabilities, equity LineItems) BalanceSheet {
	return BalanceSheet{
		Assets: Assets{
			CurrentAssets: currentAssets,
			FixedAssets:   fixedAssets,
			TotalAssets:   addFloats(currentAssets.Sum(), fixedAssets.Sum()),
		},
		Liabilities: Liabilities{
			CurrentLiabilities:  currentLiabilities,
			LongTermLiabilities: longTermLiabilities,
			TotalLiabilities:    addFloats(currentLiabilities.Sum(), longTermLiabilities.Sum()),
		},
		Equity: Equity{
			Items:       equity,
			TotalEquity: equity.Sum(),
		},
	}
}

type ProfitLoss struct {
	Revenue  Revenue  `json:"revenue"`
	Expenses Expenses `json:"expenses"`
	Profit   Profit   `json:"profit"`
}

type Revenue struct {
	Items        LineItems `json:"items"`
	TotalRevenue float64   `json:"total_revenue"`
}

type Expenses struct {
	CostOfGoodsSold   float64   `json:"cost_of_goods_sold"`
	OperatingExpenses LineItems `json:"operating_expenses"`
	OtherExpenses     LineItems `json:"other_expenses"`
	TotalExpenses     float64   `json:"total_expenses"`
}

type Profit struct {
	GrossProfit     float64 `json:"gross_profit"`
	OperatingProfit float64 `json:"operating_profit"`
	NetProfit       float64 `json:"net_profit"`
}

// NewProfitLoss собирает отчет о прибылях и убытках и выводит итоги и прибыль.
func NewProfitLoss(revenue LineItems, costOfGoodsSold float64, operating, other LineItems) ProfitLoss {
	totalRevenue := toDecimal(revenue.Sum())
	cogs := toDecimal(costOfGoodsSold)
	operatingTotal := toDecimal(operating.Sum())
	totalExpenses := cogs.Add(operatingTotal).Add(toDecimal(other.Sum()))
	gross := totalRevenue.Sub(cogs)

	return ProfitLoss{
		Revenue: Revenue{
			Items:        revenue,
			TotalRevenue: totalRevenue.InexactFloat64(),
		},
		Expenses: Expenses{
			CostOfGoodsSold:   cogs.InexactFloat64(),
			OperatingExpenses: operating,
			OtherExpenses:     other,
			TotalExpenses:     totalExpenses.InexactFloat64(),
		},
		Profit: Profit{
			GrossProfit:     gross.InexactFloat64(),
			OperatingProfit: gross.Sub(operatingTotal).InexactFloat64(),
			NetProfit:       totalRevenue.Sub(totalExpenses).InexactFloat64(),
		},
	}
}

func addFloats(a, b float64) float64 {
	return toDecimal(a).Add(toDecimal(b)).InexactFloat64()
}
