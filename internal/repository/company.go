package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/sme-finhealth/backend/internal/models"
)

const companyColumns = `id, user_id, name, registration_number, pan, gstin, industry, sub_industry,
	founded_date, employee_count, annual_revenue, city, state, country, created_at, updated_at`

type CompanyRepository struct {
	db *pgxpool.Pool
}

// CompanyInput содержит поля компании при создании и обновлении. nil в обновлении оставляет значение как есть.
type CompanyInput struct {
	Name               *string
	RegistrationNumber *string
	PAN                *string
	GSTIN              *string
	Industry           *string
	SubIndustry        *string
	FoundedDate        *time.Time
	EmployeeCount      *int
	AnnualRevenue      *float64
	City               *string
	State              *string
	Country            *string
}

// NewCompanyRepository создает репозиторий компаний.
func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create создает компанию пользователя. Страна по умолчанию India.
func (r *CompanyRepository) Create(ctx context.Context, userID uuid.UUID, input CompanyInput) (models.Company, error) {
	company, err := scanCompany(r.db.QueryRow(ctx,
		`INSERT INTO companies
		 (user_id, name, registration_number, pan, gstin, industry, sub_industry,
		  founded_date, employee_count, annual_revenue, city, state, country)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, 'India'))
		 RETURNING `+companyColumns,
		userID, input.Name, input.RegistrationNumber, input.PAN, input.GSTIN, input.Industry, input.SubIndustry,
		input.FoundedDate, input.EmployeeCount, input.AnnualRevenue, input.City, input.State, input.Country,
	))
	if err != nil && isUniqueViolation(err) {
		return company, ErrConflict
	}
	return company, err
}

// Update частично обновляет компанию пользователя.
func (r *CompanyRepository) Update(ctx context.Context, userID, companyID uuid.UUID, input CompanyInput) (models.Company, error) {
	company, err := scanCompany(r.db.QueryRow(ctx,
		`UPDATE companies
		 SET name = COALESCE($3, name),
		     registration_number = COALESCE($4, registration_number),
		     pan = COALESCE($5, pan),
		     gstin = COALESCE($6, gstin),
		     industry = COALESCE($7, industry),
		     sub_industry = COALESCE($8, sub_industry),
		     founded_date = COALESCE($9, founded_date),
		     employee_count = COALESCE($10, employee_count),
		     annual_revenue = COALESCE($11, annual_revenue),
		     city = COALESCE($12, city),
		     state = COALESCE($13, state),
		     country = COALESCE($14, country),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+companyColumns,
		companyID, userID, input.Name, input.RegistrationNumber, input.PAN, input.GSTIN, input.Industry, input.SubIndustry,
		input.FoundedDate, input.EmployeeCount, input.AnnualRevenue, input.City, input.State, input.Country,
	))
	if err != nil && isUniqueViolation(err) {
		return company, ErrConflict
	}
	return company, err
}

// Delete удаляет компанию вместе с отчетами, транзакциями и историей скоринга.
func (r *CompanyRepository) Delete(ctx context.Context, userID, companyID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM companies
		 WHERE id = $1 AND user_id = $2`,
		companyID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID возвращает компанию пользователя; чужая компания неотличима от отсутствующей.
func (r *CompanyRepository) GetByID(ctx context.Context, userID, companyID uuid.UUID) (models.Company, error) {
	return scanCompany(r.db.QueryRow(ctx,
		`SELECT `+companyColumns+`
		 FROM companies
		 WHERE id = $1 AND user_id = $2`,
		companyID, userID,
	))
}

// ListByUser возвращает компании пользователя, новые первыми.
func (r *CompanyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+companyColumns+`
		 FROM companies
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return companies, nil
}

func scanCompany(row pgx.Row) (models.Company, error) {
	var company models.Company
	err := row.Scan(
		&company.ID,
		&company.UserID,
		&company.Name,
		&company.RegistrationNumber,
		&company.PAN,
		&company.GSTIN,
		&company.Industry,
		&company.SubIndustry,
		&company.FoundedDate,
		&company.EmployeeCount,
		&company.AnnualRevenue,
		&company.City,
		&company.State,
		&company.Country,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return company, ErrNotFound
	}
	return company, err
}
