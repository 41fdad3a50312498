package statements

import (
	"io"

	"github.com/shopspring/decimal"

	"example.com/sme-finhealth/backend/internal/analysis"
)

// Правила раскладки статей проверяются по порядку, побеждает первое совпадение.
var (
	currentAssetKeywords      = []string{"cash", "bank", "receivable", "inventory", "current asset"}
	fixedAssetKeywords        = []string{"equipment", "property", "plant", "fixed asset", "machinery"}
	currentLiabilityKeywords  = []string{"payable", "current liabilit", "short-term"}
	longTermLiabilityKeywords = []string{"long-term", "loan", "debt"}
	equityKeywords            = []string{"equity", "capital", "retained earnings"}
	revenueKeywords           = []string{"revenue", "sales", "income"}
	costOfGoodsKeywords       = []string{"cost of goods", "cogs"}
	operatingExpenseKeywords  = []string{"salary", "wage", "rent", "utilities", "marketing", "admin"}
	otherExpenseKeywords      = []string{"expense", "cost"}
)

// ParseBalanceSheet читает баланс из CSV «статья, сумма». Нераспознанные статьи отбрасываются,
// повторяющиеся складываются.
func ParseBalanceSheet(r io.Reader) (analysis.BalanceSheet, error) {
	items, err := readLineItems(r)
	if err != nil {
		return analysis.BalanceSheet{}, err
	}

	currentAssets := make(lineItemSet)
	fixedAssets := make(lineItemSet)
	currentLiabilities := make(lineItemSet)
	longTermLiabilities := make(lineItemSet)
	equity := make(lineItemSet)

	for _, item := range items {
		switch {
		case containsAny(item.label, currentAssetKeywords):
			currentAssets.add(item)
		case containsAny(item.label, fixedAssetKeywords):
			fixedAssets.add(item)
		case containsAny(item.label, currentLiabilityKeywords):
			currentLiabilities.add(item)
		case containsAny(item.label, longTermLiabilityKeywords):
			longTermLiabilities.add(item)
		case containsAny(item.label, equityKeywords):
			equity.add(item)
		}
	}

	return analysis.NewBalanceSheet(
		currentAssets.lineItems(),
		fixedAssets.lineItems(),
		currentLiabilities.lineItems(),
		longTermLiabilities.lineItems(),
		equity.lineItems(),
	), nil
}

// ParseProfitLoss читает отчет о прибылях и убытках из CSV «статья, сумма».
func ParseProfitLoss(r io.Reader) (analysis.ProfitLoss, error) {
	items, err := readLineItems(r)
	if err != nil {
		return analysis.ProfitLoss{}, err
	}

	revenue := make(lineItemSet)
	operating := make(lineItemSet)
	other := make(lineItemSet)
	costOfGoods := decimal.Zero

	for _, item := range items {
		switch {
		case containsAny(item.label, revenueKeywords):
			revenue.add(item)
		case containsAny(item.label, costOfGoodsKeywords):
			costOfGoods = costOfGoods.Add(item.amount)
		case containsAny(item.label, operatingExpenseKeywords):
			operating.add(item)
		case containsAny(item.label, otherExpenseKeywords):
			other.add(item)
		}
	}

	return analysis.NewProfitLoss(
		revenue.lineItems(),
		costOfGoods.InexactFloat64(),
		operating.lineItems(),
		other.lineItems(),
	), nil
}

type lineItemSet map[string]decimal.Decimal

func (s lineItemSet) add(item lineItem) {
	s[item.label] = s[item.label].Add(item.amount)
}

func (s lineItemSet) lineItems() analysis.LineItems {
	out := make(analysis.LineItems, len(s))
	for label, amount := range s {
		out[label] = amount.InexactFloat64()
	}
	return out
}
