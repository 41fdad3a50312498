package analysis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const daysPerWindowMonth = 30

type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

type Transaction struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
}

type CashFlowBucket string

const (
	BucketNone             CashFlowBucket = ""
	BucketOperatingInflow  CashFlowBucket = "operating_inflow"
	BucketOperatingOutflow CashFlowBucket = "operating_outflow"
	BucketInvestingOutflow CashFlowBucket = "investing_outflow"
	BucketFinancingInflow  CashFlowBucket = "financing_inflow"
)

type bucketRule struct {
	bucket   CashFlowBucket
	keywords []string
}

// Порядок важен: категория попадает в первую подходящую корзину.
var bucketRules = []bucketRule{
	{bucket: BucketOperatingInflow, keywords: []string{"revenue"}},
	{bucket: BucketOperatingOutflow, keywords: []string{"expense", "cost", "salary"}},
	{bucket: BucketInvestingOutflow, keywords: []string{"asset", "equipment", "investment"}},
	{bucket: BucketFinancingInflow, keywords: []string{"loan", "equity", "financing"}},
}

type OperatingCashFlow struct {
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
	Net      float64 `json:"net"`
}

type InvestingCashFlow struct {
	Outflows float64 `json:"outflows"`
	Net      float64 `json:"net"`
}

type FinancingCashFlow struct {
	Inflows float64 `json:"inflows"`
	Net     float64 `json:"net"`
}

type CashFlowAnalysis struct {
	OperatingCashFlow OperatingCashFlow `json:"operating_cash_flow"`
	InvestingCashFlow InvestingCashFlow `json:"investing_cash_flow"`
	FinancingCashFlow FinancingCashFlow `json:"financing_cash_flow"`
	TotalNetCashFlow  float64           `json:"total_net_cash_flow"`
	MonthlyBurnRate   *float64          `json:"monthly_burn_rate,omitempty"`
}

// ClassifyCategory определяет корзину денежного потока по категории транзакции.
func ClassifyCategory(category string) CashFlowBucket {
	if strings.TrimSpace(category) == "" {
		return BucketNone
	}

	for _, rule := range bucketRules {
		if containsAny(category, rule.keywords) {
			return rule.bucket
		}
	}
	return BucketNone
}

// WindowStart возвращает начало окна анализа: now минус windowMonths*30 дней.
func WindowStart(now time.Time, windowMonths int) time.Time {
	return now.AddDate(0, 0, -windowMonths*daysPerWindowMonth)
}

// AnalyzeCashFlow раскладывает транзакции окна по операционному, инвестиционному и
// финансовому потокам и оценивает месячный burn rate.
func AnalyzeCashFlow(transactions []Transaction, windowMonths int, now time.Time) (CashFlowAnalysis, error) {
	if windowMonths < 1 {
		return CashFlowAnalysis{}, ErrInvalidWindow
	}

	start := WindowStart(now, windowMonths)

	var (
		found        bool
		operatingIn  = decimal.Zero
		operatingOut = decimal.Zero
		investingOut = decimal.Zero
		financingIn  = decimal.Zero
	)

	for _, txn := range transactions {
		if txn.Date.Before(start) || !IsFinite(txn.Amount) {
			continue
		}
		found = true

		amount := decimal.NewFromFloat(txn.Amount)
		switch ClassifyCategory(txn.Category) {
		case BucketOperatingInflow:
			operatingIn = operatingIn.Add(amount)
		case BucketOperatingOutflow:
			operatingOut = operatingOut.Add(amount.Abs())
		case BucketInvestingOutflow:
			investingOut = investingOut.Add(amount.Abs())
		case BucketFinancingInflow:
			financingIn = financingIn.Add(amount)
		}
	}

	if !found {
		return CashFlowAnalysis{}, ErrNoData
	}

	operatingNet := operatingIn.Sub(operatingOut)
	investingNet := investingOut.Neg()
	total := operatingNet.Add(investingNet).Add(financingIn)

	result := CashFlowAnalysis{
		OperatingCashFlow: OperatingCashFlow{
			Inflows:  operatingIn.InexactFloat64(),
			Outflows: operatingOut.InexactFloat64(),
			Net:      operatingNet.InexactFloat64(),
		},
		InvestingCashFlow: InvestingCashFlow{
			Outflows: investingOut.InexactFloat64(),
			Net:      investingNet.InexactFloat64(),
		},
		FinancingCashFlow: FinancingCashFlow{
			Inflows: financingIn.InexactFloat64(),
			Net:     financingIn.InexactFloat64(),
		},
		TotalNetCashFlow: total.InexactFloat64(),
	}

	if operatingNet.IsNegative() {
		burn := operatingNet.Abs().Div(decimal.NewFromInt(int64(windowMonths))).InexactFloat64()
		result.MonthlyBurnRate = &burn
	}

	return result, nil
}
