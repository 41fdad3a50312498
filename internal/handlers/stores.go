package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/models"
	"example.com/sme-finhealth/backend/internal/repository"
)

// Хранилища, с которыми работают обработчики компаний, загрузок и анализа.
// Реализуются репозиториями из internal/repository.

type CompanyStore interface {
	Create(ctx context.Context, userID uuid.UUID, input repository.CompanyInput) (models.Company, error)
	Update(ctx context.Context, userID, companyID uuid.UUID, input repository.CompanyInput) (models.Company, error)
	Delete(ctx context.Context, userID, companyID uuid.UUID) error
	GetByID(ctx context.Context, userID, companyID uuid.UUID) (models.Company, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Company, error)
}

type StatementStore interface {
	SaveBalanceSheet(ctx context.Context, companyID uuid.UUID, period repository.StatementPeriod, sheet analysis.BalanceSheet) (models.FinancialStatement, error)
	SaveProfitLoss(ctx context.Context, companyID uuid.UUID, period repository.StatementPeriod, statement analysis.ProfitLoss) (models.FinancialStatement, error)
	LatestBalanceSheet(ctx context.Context, companyID uuid.UUID) (analysis.BalanceSheet, error)
	LatestProfitLoss(ctx context.Context, companyID uuid.UUID) (analysis.ProfitLoss, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.FinancialStatement, error)
}

type TransactionStore interface {
	InsertBatch(ctx context.Context, companyID uuid.UUID, transactions []analysis.Transaction) (int64, error)
	ListSince(ctx context.Context, companyID uuid.UUID, since time.Time) ([]analysis.Transaction, error)
	Recent(ctx context.Context, companyID uuid.UUID, limit int) ([]analysis.Transaction, error)
}

type CreditScoreStore interface {
	Save(ctx context.Context, companyID uuid.UUID, result analysis.CreditScoreResult) (models.CreditScoreRecord, error)
	History(ctx context.Context, companyID uuid.UUID, limit int) ([]models.CreditScoreRecord, error)
}

type AIRequestStore interface {
	LogRequest(ctx context.Context, log repository.AIRequestLog) error
	List(ctx context.Context, filter repository.AIRequestFilter, limit, offset int) ([]repository.AIRequestRecord, error)
	Count(ctx context.Context, filter repository.AIRequestFilter) (int, error)
}

var (
	_ CompanyStore     = (*repository.CompanyRepository)(nil)
	_ StatementStore   = (*repository.StatementRepository)(nil)
	_ TransactionStore = (*repository.TransactionRepository)(nil)
	_ CreditScoreStore = (*repository.CreditScoreRepository)(nil)
	_ AIRequestStore   = (*repository.AIRepository)(nil)
)
