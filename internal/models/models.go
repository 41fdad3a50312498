package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"example.com/sme-finhealth/backend/internal/analysis"
)

type StatementType string

const (
	StatementBalanceSheet StatementType = "balance_sheet"
	StatementProfitLoss   StatementType = "profit_loss"
)

// Industries перечисляет допустимые отрасли компании.
var Industries = []string{
	"Manufacturing",
	"Retail",
	"Agriculture",
	"Services",
	"Logistics",
	"E-commerce",
	"Healthcare",
	"Education",
	"Hospitality",
	"Construction",
	"IT & Software",
	"Other",
}

// IsIndustry проверяет, что значение входит в список отраслей.
func IsIndustry(value string) bool {
	for _, industry := range Industries {
		if industry == value {
			return true
		}
	}
	return false
}

type User struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	FullName           *string   `json:"full_name,omitempty"`
	LanguagePreference string    `json:"language_preference"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Company struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	Name               string     `json:"name"`
	RegistrationNumber *string    `json:"registration_number,omitempty"`
	PAN                *string    `json:"pan,omitempty"`
	GSTIN              *string    `json:"gstin,omitempty"`
	Industry           string     `json:"industry"`
	SubIndustry        *string    `json:"sub_industry,omitempty"`
	FoundedDate        *time.Time `json:"founded_date,omitempty"`
	EmployeeCount      *int       `json:"employee_count,omitempty"`
	AnnualRevenue      *float64   `json:"annual_revenue,omitempty"`
	City               *string    `json:"city,omitempty"`
	State              *string    `json:"state,omitempty"`
	Country            string     `json:"country"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Profile возвращает данные компании, нужные для скоринга.
func (c Company) Profile() *analysis.Company {
	return &analysis.Company{
		Name:          c.Name,
		Industry:      c.Industry,
		FoundedDate:   c.FoundedDate,
		AnnualRevenue: c.AnnualRevenue,
	}
}

type FinancialStatement struct {
	ID               uuid.UUID       `json:"id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	StatementType    StatementType   `json:"statement_type"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Data             json.RawMessage `json:"data"`
	TotalAssets      *float64        `json:"total_assets,omitempty"`
	TotalLiabilities *float64        `json:"total_liabilities,omitempty"`
	TotalEquity      *float64        `json:"total_equity,omitempty"`
	TotalRevenue     *float64        `json:"total_revenue,omitempty"`
	TotalExpenses    *float64        `json:"total_expenses,omitempty"`
	NetProfit        *float64        `json:"net_profit,omitempty"`
	UploadedFile     string          `json:"uploaded_file"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Transaction struct {
	ID              uuid.UUID `json:"id"`
	CompanyID       uuid.UUID `json:"company_id"`
	TransactionDate time.Time `json:"transaction_date"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	Category        string    `json:"category"`
	DebitCredit     string    `json:"debit_credit"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToAnalysis переводит транзакцию в форму, которую принимает анализатор денежного потока.
func (t Transaction) ToAnalysis() analysis.Transaction {
	return analysis.Transaction{
		Date:        t.TransactionDate,
		Description: t.Description,
		Amount:      t.Amount,
		Category:    t.Category,
		Type:        analysis.TransactionType(t.DebitCredit),
	}
}

type CreditScoreRecord struct {
	ID                     uuid.UUID       `json:"id"`
	CompanyID              uuid.UUID       `json:"company_id"`
	Score                  int             `json:"score"`
	Grade                  string          `json:"grade"`
	RiskCategory           string          `json:"risk_category"`
	Breakdown              json.RawMessage `json:"score_breakdown"`
	Strengths              []string        `json:"positive_factors"`
	Weaknesses             []string        `json:"negative_factors"`
	ImprovementSuggestions []string        `json:"improvement_suggestions"`
	CalculatedAt           time.Time       `json:"calculated_at"`
}

type AIRequest struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	CompanyID    *uuid.UUID `json:"company_id,omitempty"`
	RequestType  string     `json:"request_type"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	Success      bool       `json:"success"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}
