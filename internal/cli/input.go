package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/statements"
)

const dateLayout = "2006-01-02"

var (
	errNoInput         = errors.New("no input: pass --input or statement CSV files")
	errNonFiniteAmount = errors.New("amount must be a finite number")
)

// document описывает входной файл оценки в YAML или JSON.
type document struct {
	Company      *companyDocument      `yaml:"company"`
	BalanceSheet balanceSheetDocument  `yaml:"balance_sheet"`
	ProfitLoss   profitLossDocument    `yaml:"profit_loss"`
	Transactions []transactionDocument `yaml:"transactions"`
}

type companyDocument struct {
	Name          string   `yaml:"name"`
	Industry      string   `yaml:"industry"`
	FoundedDate   string   `yaml:"founded_date"`
	AnnualRevenue *float64 `yaml:"annual_revenue"`
}

type balanceSheetDocument struct {
	CurrentAssets       map[string]float64 `yaml:"current_assets"`
	FixedAssets         map[string]float64 `yaml:"fixed_assets"`
	CurrentLiabilities  map[string]float64 `yaml:"current_liabilities"`
	LongTermLiabilities map[string]float64 `yaml:"long_term_liabilities"`
	Equity              map[string]float64 `yaml:"equity"`
}

type profitLossDocument struct {
	Revenue           map[string]float64 `yaml:"revenue"`
	CostOfGoodsSold   float64            `yaml:"cost_of_goods_sold"`
	OperatingExpenses map[string]float64 `yaml:"operating_expenses"`
	OtherExpenses     map[string]float64 `yaml:"other_expenses"`
}

type transactionDocument struct {
	Date        string  `yaml:"date"`
	Description string  `yaml:"description"`
	Amount      float64 `yaml:"amount"`
	Category    string  `yaml:"category"`
	Type        string  `yaml:"type"`
}

// sources указывает, откуда читать данные; CSV-файлы заменяют соответствующие разделы документа.
type sources struct {
	input        string
	balanceSheet string
	profitLoss   string
	transactions string
}

func (s sources) empty() bool {
	return s.input == "" && s.balanceSheet == "" && s.profitLoss == "" && s.transactions == ""
}

// loadInput собирает входные данные конвейера из документа и CSV-выгрузок.
func loadInput(src sources, stdin io.Reader, window int) (analysis.AssessmentInput, error) {
	if src.empty() {
		return analysis.AssessmentInput{}, errNoInput
	}

	input := analysis.AssessmentInput{WindowMonths: window}

	if src.input != "" {
		doc, err := readDocument(src.input, stdin)
		if err != nil {
			return input, err
		}
		if input, err = doc.toInput(window); err != nil {
			return input, err
		}
	}

	if src.balanceSheet != "" {
		sheet, err := parseFile(src.balanceSheet, stdin, statements.ParseBalanceSheet)
		if err != nil {
			return input, fmt.Errorf("balance sheet %s: %w", src.balanceSheet, err)
		}
		input.BalanceSheet = sheet
	}

	if src.profitLoss != "" {
		statement, err := parseFile(src.profitLoss, stdin, statements.ParseProfitLoss)
		if err != nil {
			return input, fmt.Errorf("profit and loss %s: %w", src.profitLoss, err)
		}
		input.ProfitLoss = statement
	}

	if src.transactions != "" {
		transactions, err := parseFile(src.transactions, stdin, statements.ParseTransactions)
		if err != nil {
			return input, fmt.Errorf("transactions %s: %w", src.transactions, err)
		}
		input.Transactions = transactions
	}

	return input, nil
}

func readDocument(path string, stdin io.Reader) (document, error) {
	doc, err := parseFile(path, stdin, func(r io.Reader) (document, error) {
		var doc document
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return doc, err
		}
		return doc, nil
	})
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// parseFile открывает файл (или stdin для "-") и передает его разборщику.
func parseFile[T any](path string, stdin io.Reader, parse func(io.Reader) (T, error)) (T, error) {
	if path == "-" {
		return parse(stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer file.Close()

	return parse(file)
}

func (d document) toInput(window int) (analysis.AssessmentInput, error) {
	if err := d.checkAmounts(); err != nil {
		return analysis.AssessmentInput{WindowMonths: window}, err
	}

	input := analysis.AssessmentInput{
		BalanceSheet: analysis.NewBalanceSheet(
			d.BalanceSheet.CurrentAssets,
			d.BalanceSheet.FixedAssets,
			d.BalanceSheet.CurrentLiabilities,
			d.BalanceSheet.LongTermLiabilities,
			d.BalanceSheet.Equity,
		),
		ProfitLoss: analysis.NewProfitLoss(
			d.ProfitLoss.Revenue,
			d.ProfitLoss.CostOfGoodsSold,
			d.ProfitLoss.OperatingExpenses,
			d.ProfitLoss.OtherExpenses,
		),
		WindowMonths: window,
	}

	if d.Company != nil {
		company := &analysis.Company{
			Name:          d.Company.Name,
			Industry:      d.Company.Industry,
			AnnualRevenue: d.Company.AnnualRevenue,
		}
		if raw := strings.TrimSpace(d.Company.FoundedDate); raw != "" {
			founded, err := time.Parse(dateLayout, raw)
			if err != nil {
				return input, fmt.Errorf("company founded_date %q: expected YYYY-MM-DD", raw)
			}
			company.FoundedDate = &founded
		}
		input.Company = company
	}

	input.Transactions = make([]analysis.Transaction, 0, len(d.Transactions))
	for i, txn := range d.Transactions {
		date, err := time.Parse(dateLayout, strings.TrimSpace(txn.Date))
		if err != nil {
			return input, fmt.Errorf("transaction %d: invalid date %q", i+1, txn.Date)
		}

		kind := analysis.TransactionType(strings.ToLower(strings.TrimSpace(txn.Type)))
		switch kind {
		case analysis.TransactionDebit, analysis.TransactionCredit:
		case "":
			kind = analysis.TransactionCredit
			if txn.Amount < 0 {
				kind = analysis.TransactionDebit
			}
		default:
			return input, fmt.Errorf("transaction %d: type must be debit or credit", i+1)
		}

		input.Transactions = append(input.Transactions, analysis.Transaction{
			Date:        date,
			Description: txn.Description,
			Amount:      txn.Amount,
			Category:    txn.Category,
			Type:        kind,
		})
	}

	return input, nil
}

// checkAmounts отклоняет NaN и бесконечности: YAML допускает .nan и .inf в числовых полях.
func (d document) checkAmounts() error {
	sections := []struct {
		name  string
		items map[string]float64
	}{
		{"balance_sheet.current_assets", d.BalanceSheet.CurrentAssets},
		{"balance_sheet.fixed_assets", d.BalanceSheet.FixedAssets},
		{"balance_sheet.current_liabilities", d.BalanceSheet.CurrentLiabilities},
		{"balance_sheet.long_term_liabilities", d.BalanceSheet.LongTermLiabilities},
		{"balance_sheet.equity", d.BalanceSheet.Equity},
		{"profit_loss.revenue", d.ProfitLoss.Revenue},
		{"profit_loss.operating_expenses", d.ProfitLoss.OperatingExpenses},
		{"profit_loss.other_expenses", d.ProfitLoss.OtherExpenses},
	}
	for _, section := range sections {
		for label, amount := range section.items {
			if !analysis.IsFinite(amount) {
				return fmt.Errorf("%s %q: %w", section.name, label, errNonFiniteAmount)
			}
		}
	}

	if !analysis.IsFinite(d.ProfitLoss.CostOfGoodsSold) {
		return fmt.Errorf("profit_loss.cost_of_goods_sold: %w", errNonFiniteAmount)
	}
	if d.Company != nil && d.Company.AnnualRevenue != nil && !analysis.IsFinite(*d.Company.AnnualRevenue) {
		return fmt.Errorf("company.annual_revenue: %w", errNonFiniteAmount)
	}
	for i, txn := range d.Transactions {
		if !analysis.IsFinite(txn.Amount) {
			return fmt.Errorf("transaction %d: %w", i+1, errNonFiniteAmount)
		}
	}
	return nil
}
