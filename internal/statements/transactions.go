package statements

import (
	"fmt"
	"io"
	"strings"
	"time"

	"example.com/sme-finhealth/backend/internal/analysis"
)

var transactionDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// transactionColumns хранит индексы колонок выписки; -1 означает, что колонки нет.
type transactionColumns struct {
	date        int
	description int
	amount      int
	debit       int
	credit      int
	category    int
	kind        int
}

func resolveTransactionColumns(header []string) (transactionColumns, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	lookup := func(names ...string) int {
		for _, name := range names {
			if i, ok := index[name]; ok {
				return i
			}
		}
		return -1
	}

	cols := transactionColumns{
		date:        lookup("date", "transaction date", "transaction_date", "txn date", "value date"),
		description: lookup("description", "particulars", "narration"),
		amount:      lookup("amount", "value"),
		debit:       lookup("debit", "withdrawal"),
		credit:      lookup("credit", "deposit"),
		category:    lookup("category"),
		kind:        lookup("type", "debit_credit", "dr/cr"),
	}

	if cols.date == -1 {
		return cols, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	if cols.amount == -1 && cols.debit == -1 && cols.credit == -1 {
		return cols, fmt.Errorf("%w: amount", ErrMissingColumn)
	}
	return cols, nil
}

// ParseTransactions читает банковскую выписку с заголовком. Строки с неразбираемой датой
// или суммой пропускаются.
func ParseTransactions(r io.Reader) ([]analysis.Transaction, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	cols, err := resolveTransactionColumns(records[0])
	if err != nil {
		return nil, err
	}

	transactions := make([]analysis.Transaction, 0, len(records)-1)
	for _, record := range records[1:] {
		txn, ok := parseTransactionRow(cols, record)
		if ok {
			transactions = append(transactions, txn)
		}
	}

	if len(transactions) == 0 {
		return nil, ErrEmptyDocument
	}
	return transactions, nil
}

func parseTransactionRow(cols transactionColumns, record []string) (analysis.Transaction, bool) {
	date, ok := parseDate(cell(record, cols.date))
	if !ok {
		return analysis.Transaction{}, false
	}

	txn := analysis.Transaction{
		Date:        date,
		Description: cell(record, cols.description),
		Category:    cell(record, cols.category),
	}

	var kindFromColumns analysis.TransactionType
	switch {
	case cols.amount != -1:
		amount, err := ParseAmount(cell(record, cols.amount))
		if err != nil {
			return analysis.Transaction{}, false
		}
		txn.Amount = amount.InexactFloat64()
	case cell(record, cols.debit) != "":
		amount, err := ParseAmount(cell(record, cols.debit))
		if err != nil {
			return analysis.Transaction{}, false
		}
		txn.Amount = amount.InexactFloat64()
		kindFromColumns = analysis.TransactionDebit
	default:
		amount, err := ParseAmount(cell(record, cols.credit))
		if err != nil {
			return analysis.Transaction{}, false
		}
		txn.Amount = amount.InexactFloat64()
		kindFromColumns = analysis.TransactionCredit
	}

	txn.Type = transactionType(cell(record, cols.kind), kindFromColumns, txn.Amount)
	return txn, true
}

// transactionType определяет направление операции: явная колонка, затем дебет/кредит, затем знак суммы.
func transactionType(raw string, fromColumns analysis.TransactionType, amount float64) analysis.TransactionType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debit", "dr", "d", "withdrawal":
		return analysis.TransactionDebit
	case "credit", "cr", "c", "deposit":
		return analysis.TransactionCredit
	}

	if fromColumns != "" {
		return fromColumns
	}
	if amount < 0 {
		return analysis.TransactionDebit
	}
	return analysis.TransactionCredit
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range transactionDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
