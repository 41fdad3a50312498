package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/sme-finhealth/backend/internal/analysis"
	"example.com/sme-finhealth/backend/internal/models"
)

const creditScoreColumns = `id, company_id, score, grade, risk_category, score_breakdown,
	positive_factors, negative_factors, improvement_suggestions, calculated_at`

type CreditScoreRepository struct {
	db *pgxpool.Pool
}

// NewCreditScoreRepository создает репозиторий истории кредитного скоринга.
func NewCreditScoreRepository(db *pgxpool.Pool) *CreditScoreRepository {
	return &CreditScoreRepository{db: db}
}

// Save добавляет результат скоринга в историю компании.
func (r *CreditScoreRepository) Save(ctx context.Context, companyID uuid.UUID, result analysis.CreditScoreResult) (models.CreditScoreRecord, error) {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return models.CreditScoreRecord{}, fmt.Errorf("encode score breakdown: %w", err)
	}

	return scanCreditScore(r.db.QueryRow(ctx,
		`INSERT INTO credit_scores
		 (company_id, score, grade, risk_category, score_breakdown,
		  positive_factors, negative_factors, improvement_suggestions)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
		 RETURNING `+creditScoreColumns,
		companyID, result.Score, result.Grade, string(result.RiskCategory), string(breakdown),
		nonNilStrings(result.Strengths), nonNilStrings(result.Weaknesses), nonNilStrings(result.ImprovementSuggestions),
	))
}

// History возвращает последние limit результатов скоринга, новые первыми.
func (r *CreditScoreRepository) History(ctx context.Context, companyID uuid.UUID, limit int) ([]models.CreditScoreRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalid
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+creditScoreColumns+`
		 FROM credit_scores
		 WHERE company_id = $1
		 ORDER BY calculated_at DESC
		 LIMIT $2`,
		companyID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.CreditScoreRecord, 0)
	for rows.Next() {
		record, err := scanCreditScore(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func scanCreditScore(row pgx.Row) (models.CreditScoreRecord, error) {
	var record models.CreditScoreRecord
	var breakdown []byte
	err := row.Scan(
		&record.ID,
		&record.CompanyID,
		&record.Score,
		&record.Grade,
		&record.RiskCategory,
		&breakdown,
		&record.Strengths,
		&record.Weaknesses,
		&record.ImprovementSuggestions,
		&record.CalculatedAt,
	)
	if err != nil {
		return record, err
	}

	record.Breakdown = breakdown
	return record, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
