package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/models"
)

const statementColumns = `id, company_id, statement_type, period_start, period_end, data,
	total_assets, total_liabilities, total_equity, total_revenue, total_expenses, net_profit,
	uploaded_file, created_at`

type StatementRepository struct {
	db *pgxpool.Pool
}

// StatementPeriod задает отчетный период и исходный файл загружаемого отчета.
type StatementPeriod struct {
	Start        time.Time
	End          time.Time
	UploadedFile string
}

// NewStatementRepository создает репозиторий финансовых отчетов.
func NewStatementRepository(db *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{db: db}
}

// SaveBalanceSheet сохраняет баланс вместе с итоговыми суммами.
func (r *StatementRepository) SaveBalanceSheet(ctx context.Context, companyID uuid.UUID, period StatementPeriod, sheet analysis.BalanceSheet) (models.FinancialStatement, error) {
	return r.save(ctx, companyID, models.StatementBalanceSheet, period, sheet, balanceSheetSummary(sheet))
}

// SaveProfitLoss сохраняет отчет о прибылях и убытках вместе с итоговыми суммами.
func (r *StatementRepository) SaveProfitLoss(ctx context.Context, companyID uuid.UUID, period StatementPeriod, statement analysis.ProfitLoss) (models.FinancialStatement, error) {
	return r.save(ctx, companyID, models.StatementProfitLoss, period, statement, profitLossSummary(statement))
}

// LatestBalanceSheet возвращает баланс с самой поздней датой окончания периода.
func (r *StatementRepository) LatestBalanceSheet(ctx context.Context, companyID uuid.UUID) (analysis.BalanceSheet, error) {
	var sheet analysis.BalanceSheet
	err := r.latestData(ctx, companyID, models.StatementBalanceSheet, &sheet)
	return sheet, err
}

// LatestProfitLoss возвращает отчет о прибылях и убытках с самой поздней датой окончания периода.
func (r *StatementRepository) LatestProfitLoss(ctx context.Context, companyID uuid.UUID) (analysis.ProfitLoss, error) {
	var statement analysis.ProfitLoss
	err := r.latestData(ctx, companyID, models.StatementProfitLoss, &statement)
	return statement, err
}

// ListByCompany возвращает отчеты компании, новые периоды первыми.
func (r *StatementRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.FinancialStatement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+statementColumns+`
		 FROM financial_statements
		 WHERE company_id = $1
		 ORDER BY period_end DESC, created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statements := make([]models.FinancialStatement, 0)
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return statements, nil
}

func (r *StatementRepository) save(ctx context.Context, companyID uuid.UUID, statementType models.StatementType, period StatementPeriod, data any, summary statementSummary) (models.FinancialStatement, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return models.FinancialStatement{}, fmt.Errorf("encode %s: %w", statementType, err)
	}

	return scanStatement(r.db.QueryRow(ctx,
		`INSERT INTO financial_statements
		 (company_id, statement_type, period_start, period_end, data,
		  total_assets, total_liabilities, total_equity, total_revenue, total_expenses, net_profit, uploaded_file)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+statementColumns,
		companyID, string(statementType), period.Start, period.End, string(payload),
		summary.TotalAssets, summary.TotalLiabilities, summary.TotalEquity,
		summary.TotalRevenue, summary.TotalExpenses, summary.NetProfit, period.UploadedFile,
	))
}

func (r *StatementRepository) latestData(ctx context.Context, companyID uuid.UUID, statementType models.StatementType, target any) error {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT data
		 FROM financial_statements
		 WHERE company_id = $1 AND statement_type = $2
		 ORDER BY period_end DESC, created_at DESC
		 LIMIT 1`,
		companyID, string(statementType),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", statementType, err)
	}
	return nil
}

// statementSummary хранит денормализованные итоги отчета для списков без разбора JSONB.
type statementSummary struct {
	TotalAssets      *float64
	TotalLiabilities *float64
	TotalEquity      *float64
	TotalRevenue     *float64
	TotalExpenses    *float64
	NetProfit        *float64
}

func balanceSheetSummary(sheet analysis.BalanceSheet) statementSummary {
	return statementSummary{
		TotalAssets:      &sheet.Assets.TotalAssets,
		TotalLiabilities: &sheet.Liabilities.TotalLiabilities,
		TotalEquity:      &sheet.Equity.TotalEquity,
	}
}

func profitLossSummary(statement analysis.ProfitLoss) statementSummary {
	return statementSummary{
		TotalRevenue:  &statement.Revenue.TotalRevenue,
		TotalExpenses: &statement.Expenses.TotalExpenses,
		NetProfit:     &statement.Profit.NetProfit,
	}
}

func scanStatement(row pgx.Row) (models.FinancialStatement, error) {
	var statement models.FinancialStatement
	var statementType string
	var data []byte
	err := row.Scan(
		&statement.ID,
		&statement.CompanyID,
		&statementType,
		&statement.PeriodStart,
		&statement.PeriodEnd,
		&data,
		&statement.TotalAssets,
		&statement.TotalLiabilities,
		&statement.TotalEquity,
		&statement.TotalRevenue,
		&statement.TotalExpenses,
		&statement.NetProfit,
		&statement.UploadedFile,
		&statement.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return statement, ErrNotFound
		}
		return statement, err
	}

	statement.StatementType = models.StatementType(statementType)
	statement.Data = data
	return statement, nil
}
