package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

type OverviewStats struct {
	Companies          int
	Statements         int
	Transactions       int
	ScoredCompanies    int
	AverageCreditScore *float64
}

// CompanyScore содержит последний рассчитанный скоринг компании; пустые поля означают, что расчета не было.
type CompanyScore struct {
	CompanyID    uuid.UUID
	Name         string
	Industry     string
	Score        *int
	Grade        *string
	CalculatedAt *time.Time
}

type MonthlyCashFlow struct {
	Month    time.Time
	Inflows  float64
	Outflows float64
}

// NewStatsRepository создает репозиторий статистики.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview возвращает сводку по компаниям пользователя и их последним скорингам.
func (r *StatsRepository) Overview(ctx context.Context, userID uuid.UUID) (OverviewStats, error) {
	var stats OverviewStats

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) AS companies,
		        COALESCE(SUM((SELECT COUNT(*) FROM financial_statements s WHERE s.company_id = c.id)), 0) AS statements,
		        COALESCE(SUM((SELECT COUNT(*) FROM transactions t WHERE t.company_id = c.id)), 0) AS transactions
		 FROM companies c
		 WHERE c.user_id = $1`,
		userID,
	).Scan(&stats.Companies, &stats.Statements, &stats.Transactions)
	if err != nil {
		return stats, err
	}

	err = r.db.QueryRow(ctx,
		`WITH latest AS (
			SELECT DISTINCT ON (cs.company_id) cs.company_id, cs.score
			FROM credit_scores cs
			JOIN companies c ON c.id = cs.company_id
			WHERE c.user_id = $1
			ORDER BY cs.company_id, cs.calculated_at DESC
		)
		SELECT COUNT(*), AVG(score)::float8 FROM latest`,
		userID,
	).Scan(&stats.ScoredCompanies, &stats.AverageCreditScore)
	if err != nil {
		return stats, err
	}

	return stats, nil
}

// LatestScores возвращает компании пользователя с последним скорингом каждой.
func (r *StatsRepository) LatestScores(ctx context.Context, userID uuid.UUID) ([]CompanyScore, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name, c.industry, latest.score, latest.grade, latest.calculated_at
		 FROM companies c
		 LEFT JOIN LATERAL (
			SELECT score, grade, calculated_at
			FROM credit_scores
			WHERE company_id = c.id
			ORDER BY calculated_at DESC
			LIMIT 1
		 ) latest ON TRUE
		 WHERE c.user_id = $1
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]CompanyScore, 0)
	for rows.Next() {
		var row CompanyScore
		if err := rows.Scan(&row.CompanyID, &row.Name, &row.Industry, &row.Score, &row.Grade, &row.CalculatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scores, nil
}

// MonthlyCashFlow возвращает поступления и списания компании по месяцам, последние months месяцев.
func (r *StatsRepository) MonthlyCashFlow(ctx context.Context, companyID uuid.UUID, months int) ([]MonthlyCashFlow, error) {
	if months <= 0 {
		return nil, ErrInvalid
	}

	rows, err := r.db.Query(ctx,
		`SELECT date_trunc('month', transaction_date)::date AS month,
		        COALESCE(SUM(CASE WHEN debit_credit = 'credit' THEN ABS(amount) ELSE 0 END), 0) AS inflows,
		        COALESCE(SUM(CASE WHEN debit_credit = 'debit' THEN ABS(amount) ELSE 0 END), 0) AS outflows
		 FROM transactions
		 WHERE company_id = $1
		 GROUP BY month
		 ORDER BY month DESC
		 LIMIT $2`,
		companyID, months,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]MonthlyCashFlow, 0)
	for rows.Next() {
		var row MonthlyCashFlow
		if err := rows.Scan(&row.Month, &row.Inflows, &row.Outflows); err != nil {
			return nil, err
		}
		items = append(items, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
