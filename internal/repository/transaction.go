package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/sme-finhealth/backend/internal/analysis"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

var transactionCopyColumns = []string{"company_id", "transaction_date", "description", "amount", "category", "debit_credit"}

// NewTransactionRepository создает репозиторий банковских транзакций.
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// InsertBatch загружает транзакции одной командой COPY и возвращает число вставленных строк.
func (r *TransactionRepository) InsertBatch(ctx context.Context, companyID uuid.UUID, transactions []analysis.Transaction) (int64, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	return r.db.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		transactionCopyColumns,
		pgx.CopyFromSlice(len(transactions), func(i int) ([]any, error) {
			return transactionCopyRow(companyID, transactions[i]), nil
		}),
	)
}

// ListSince возвращает транзакции компании начиная с даты since включительно.
func (r *TransactionRepository) ListSince(ctx context.Context, companyID uuid.UUID, since time.Time) ([]analysis.Transaction, error) {
	return r.query(ctx,
		`SELECT transaction_date, description, amount, category, debit_credit
		 FROM transactions
		 WHERE company_id = $1 AND transaction_date >= $2
		 ORDER BY transaction_date`,
		companyID, since,
	)
}

// Recent возвращает последние limit транзакций компании, новые первыми.
func (r *TransactionRepository) Recent(ctx context.Context, companyID uuid.UUID, limit int) ([]analysis.Transaction, error) {
	if limit <= 0 {
		return nil, ErrInvalid
	}

	return r.query(ctx,
		`SELECT transaction_date, description, amount, category, debit_credit
		 FROM transactions
		 WHERE company_id = $1
		 ORDER BY transaction_date DESC, created_at DESC
		 LIMIT $2`,
		companyID, limit,
	)
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]analysis.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]analysis.Transaction, 0)
	for rows.Next() {
		var txn analysis.Transaction
		var description, category *string
		var debitCredit string
		if err := rows.Scan(&txn.Date, &description, &txn.Amount, &category, &debitCredit); err != nil {
			return nil, err
		}
		if description != nil {
			txn.Description = *description
		}
		if category != nil {
			txn.Category = *category
		}
		txn.Type = analysis.TransactionType(debitCredit)
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func transactionCopyRow(companyID uuid.UUID, txn analysis.Transaction) []any {
	return []any{
		companyID,
		txn.Date,
		nullableString(txn.Description),
		txn.Amount,
		nullableString(txn.Category),
		string(txn.Type),
	}
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
