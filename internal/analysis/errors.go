package analysis

import "errors"

var (
	ErrNoData          = errors.New("no transaction data available")
	ErrCompanyNotFound = errors.New("company not found")
	ErrInvalidWindow   = errors.New("cash flow window must be at least one month")
)
