package analysis

const daysPerYear = 365

var (
	inventoryKeywords  = []string{"inventory"}
	cashKeywords       = []string{"cash", "bank"}
	receivableKeywords = []string{"receivable"}
)

type RatioSet struct {
	Liquidity     LiquidityRatios     `json:"liquidity"`
	Profitability ProfitabilityRatios `json:"profitability"`
	Leverage      LeverageRatios      `json:"leverage"`
	Efficiency    EfficiencyRatios    `json:"efficiency"`
}

type LiquidityRatios struct {
	CurrentRatio float64 `json:"current_ratio"`
	QuickRatio   float64 `json:"quick_ratio"`
	CashRatio    float64 `json:"cash_ratio"`
}

type ProfitabilityRatios struct {
	GrossProfitMargin     float64 `json:"gross_profit_margin"`
	OperatingProfitMargin float64 `json:"operating_profit_margin"`
	NetProfitMargin       float64 `json:"net_profit_margin"`
	ReturnOnAssets        float64 `json:"return_on_assets"`
	ReturnOnEquity        float64 `json:"return_on_equity"`
}

type LeverageRatios struct {
	DebtToEquity float64 `json:"debt_to_equity"`
	DebtToAssets float64 `json:"debt_to_assets"`
	EquityRatio  float64 `json:"equity_ratio"`
}

type EfficiencyRatios struct {
	AssetTurnover            float64 `json:"asset_turnover"`
	ReceivablesTurnover      float64 `json:"receivables_turnover"`
	DaysSalesOutstanding     float64 `json:"days_sales_outstanding"`
	InventoryTurnover        float64 `json:"inventory_turnover"`
	DaysInventoryOutstanding float64 `json:"days_inventory_outstanding"`
}

// ComputeRatios рассчитывает все группы коэффициентов по балансу и P&L.
// Функция тотальная: нулевой или отрицательный знаменатель дает 0.
func ComputeRatios(balanceSheet BalanceSheet, profitLoss ProfitLoss) RatioSet {
	return RatioSet{
		Liquidity:     LiquidityFrom(balanceSheet),
		Profitability: ProfitabilityFrom(profitLoss, balanceSheet),
		Leverage:      LeverageFrom(balanceSheet),
		Efficiency:    EfficiencyFrom(profitLoss, balanceSheet),
	}
}

// LiquidityFrom рассчитывает коэффициенты ликвидности.
func LiquidityFrom(balanceSheet BalanceSheet) LiquidityRatios {
	currentItems := balanceSheet.Assets.CurrentAssets
	currentAssets := currentItems.Sum()
	currentLiabilities := balanceSheet.Liabilities.CurrentLiabilities.Sum()

	cash := currentItems.SumMatching(cashKeywords...)
	inventory := currentItems.SumMatching(inventoryKeywords...)

	return LiquidityRatios{
		CurrentRatio: safeDiv(currentAssets, currentLiabilities),
		QuickRatio:   safeDiv(currentAssets-inventory, currentLiabilities),
		CashRatio:    safeDiv(cash, currentLiabilities),
	}
}

// ProfitabilityFrom рассчитывает маржинальность и доходность в процентах.
func ProfitabilityFrom(profitLoss ProfitLoss, balanceSheet BalanceSheet) ProfitabilityRatios {
	revenue := profitLoss.Revenue.TotalRevenue
	profit := profitLoss.Profit

	return ProfitabilityRatios{
		GrossProfitMargin:     percent(profit.GrossProfit, revenue),
		OperatingProfitMargin: percent(profit.OperatingProfit, revenue),
		NetProfitMargin:       percent(profit.NetProfit, revenue),
		ReturnOnAssets:        percent(profit.NetProfit, balanceSheet.Assets.TotalAssets),
		ReturnOnEquity:        percent(profit.NetProfit, balanceSheet.Equity.TotalEquity),
	}
}

// LeverageFrom рассчитывает показатели долговой нагрузки.
func LeverageFrom(balanceSheet BalanceSheet) LeverageRatios {
	totalAssets := balanceSheet.Assets.TotalAssets
	totalLiabilities := balanceSheet.Liabilities.TotalLiabilities
	totalEquity := balanceSheet.Equity.TotalEquity

	return LeverageRatios{
		DebtToEquity: safeDiv(totalLiabilities, totalEquity),
		DebtToAssets: percent(totalLiabilities, totalAssets),
		EquityRatio:  percent(totalEquity, totalAssets),
	}
}

// EfficiencyFrom рассчитывает оборачиваемость активов, дебиторки и запасов.
func EfficiencyFrom(profitLoss ProfitLoss, balanceSheet BalanceSheet) EfficiencyRatios {
	revenue := profitLoss.Revenue.TotalRevenue
	currentItems := balanceSheet.Assets.CurrentAssets

	receivables := currentItems.SumMatching(receivableKeywords...)
	inventory := currentItems.SumMatching(inventoryKeywords...)

	receivablesTurnover := safeDiv(revenue, receivables)
	inventoryTurnover := safeDiv(profitLoss.Expenses.CostOfGoodsSold, inventory)

	return EfficiencyRatios{
		AssetTurnover:            safeDiv(revenue, balanceSheet.Assets.TotalAssets),
		ReceivablesTurnover:      receivablesTurnover,
		DaysSalesOutstanding:     safeDiv(daysPerYear, receivablesTurnover),
		InventoryTurnover:        inventoryTurnover,
		DaysInventoryOutstanding: safeDiv(daysPerYear, inventoryTurnover),
	}
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

func percent(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator * 100
}
