// Package statements приводит загруженные CSV-документы к структурам анализатора.
package statements

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyDocument      = errors.New("document contains no usable rows")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrMissingColumn      = errors.New("required column is missing")
	errUnparseableAmount  = errors.New("unparseable amount")
	amountReplacer        = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "INR", "", " ", "")
	defaultAllowedFormats = []string{".csv"}
)

// CheckExtension проверяет расширение файла по списку разрешенных (по умолчанию только .csv).
func CheckExtension(filename string, allowed []string) error {
	if len(allowed) == 0 {
		allowed = defaultAllowedFormats
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || !slices.Contains(allowed, ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	// Разбирается только CSV; остальные расширения из конфигурации принимаются, но не читаются.
	if ext != ".csv" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// ParseAmount разбирает денежную сумму вида "₹1,20,000.50" или "(500)".
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(raw))

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if cleaned == "" {
		return decimal.Zero, errUnparseableAmount
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errUnparseableAmount
	}
	if negative {
		value = value.Neg()
	}
	return value, nil
}

func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDocument
	}
	return records, nil
}

// lineItem представляет строку документа «статья, сумма».
type lineItem struct {
	label  string
	amount decimal.Decimal
}

// readLineItems читает двухколоночный документ; строки без разбираемой суммы (включая заголовок) пропускаются.
func readLineItems(r io.Reader) ([]lineItem, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	items := make([]lineItem, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}

		label := strings.ToLower(strings.TrimSpace(record[0]))
		if label == "" {
			continue
		}

		amount, err := ParseAmount(record[1])
		if err != nil {
			continue
		}
		items = append(items, lineItem{label: label, amount: amount})
	}

	if len(items) == 0 {
		return nil, ErrEmptyDocument
	}
	return items, nil
}

func containsAny(label string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(label, keyword) {
			return true
		}
	}
	return false
}
