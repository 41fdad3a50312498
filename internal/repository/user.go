package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/sme-finhealth/backend/internal/models"
)

const userColumns = `id, email, password_hash, full_name, language_preference, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает репозиторий пользователей.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя; повторный email дает ErrConflict.
func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, fullName *string, language string) (models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, full_name, language_preference)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		email, passwordHash, fullName, language,
	))
	if err != nil && isUniqueViolation(err) {
		return user, ErrConflict
	}
	return user, err
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.LanguagePreference, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// UpdateLanguage меняет язык интерфейса и AI-ответов пользователя.
func (r *UserRepository) UpdateLanguage(ctx context.Context, id uuid.UUID, language string) (models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET language_preference = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, language,
	))
}
