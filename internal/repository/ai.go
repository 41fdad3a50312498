package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AIRepository struct {
	db *pgxpool.Pool
}

type AIRequestLog struct {
	UserID          uuid.UUID
	CompanyID       *uuid.UUID
	RequestType     string
	Provider        string
	Model           string
	Prompt          string
	RequestPayload  []byte
	ResponsePayload []byte
	RawResponse     string
	Success         bool
	ErrorMessage    *string
}

// AIRequestFilter ограничивает выборку журнала AI-запросов. UserID обязателен.
type AIRequestFilter struct {
	UserID      uuid.UUID
	CompanyID   *uuid.UUID
	Success     *bool
	RequestType *string
	Since       *time.Time
}

type AIRequestRecord struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    *uuid.UUID `json:"company_id,omitempty"`
	RequestType  string     `json:"request_type"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	Success      bool       `json:"success"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewAIRepository создает репозиторий для AI-запросов.
func NewAIRepository(db *pgxpool.Pool) *AIRepository {
	return &AIRepository{db: db}
}

// LogRequest сохраняет лог AI-запроса.
func (r *AIRepository) LogRequest(ctx context.Context, log AIRequestLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_requests
		 (user_id, company_id, request_type, provider, model, prompt, request_payload, response_payload, raw_response, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::jsonb, NULLIF($8, '')::jsonb, $9, $10, $11)`,
		log.UserID,
		log.CompanyID,
		log.RequestType,
		log.Provider,
		log.Model,
		log.Prompt,
		string(log.RequestPayload),
		string(log.ResponsePayload),
		log.RawResponse,
		log.Success,
		log.ErrorMessage,
	)
	return err
}

// List возвращает журнал AI-запросов пользователя, новые первыми.
func (r *AIRepository) List(ctx context.Context, filter AIRequestFilter, limit, offset int) ([]AIRequestRecord, error) {
	if limit <= 0 || offset < 0 {
		return nil, ErrInvalid
	}

	where, args := buildAIRequestWhere(filter)
	limitParam := len(args) + 1
	offsetParam := len(args) + 2
	query := fmt.Sprintf(
		"SELECT id, company_id, request_type, provider, model, success, error_message, created_at FROM ai_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, limitParam, offsetParam,
	)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]AIRequestRecord, 0)
	for rows.Next() {
		var record AIRequestRecord
		if err := rows.Scan(
			&record.ID,
			&record.CompanyID,
			&record.RequestType,
			&record.Provider,
			&record.Model,
			&record.Success,
			&record.ErrorMessage,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Count возвращает число записей журнала, подходящих под фильтр.
func (r *AIRepository) Count(ctx context.Context, filter AIRequestFilter) (int, error) {
	where, args := buildAIRequestWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM ai_requests"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildAIRequestWhere(filter AIRequestFilter) (string, []any) {
	args := []any{filter.UserID}
	clauses := []string{"user_id = $1"}

	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		clauses = append(clauses, fmt.Sprintf("company_id = $%d", len(args)))
	}

	if filter.Success != nil {
		args = append(args, *filter.Success)
		clauses = append(clauses, fmt.Sprintf("success = $%d", len(args)))
	}

	if filter.RequestType != nil {
		args = append(args, *filter.RequestType)
		clauses = append(clauses, fmt.Sprintf("request_type = $%d", len(args)))
	}

	if filter.Since != nil {
		args = append(args, *filter.Since)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
