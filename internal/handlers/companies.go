package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/auth"
	"example.com/sme-finhealth/backend/internal/repository"
)

type CompanyHandler struct {
	Companies CompanyStore
	now       func() time.Time
}

// NewCompanyHandler создает обработчик компаний.
func NewCompanyHandler(companies CompanyStore) *CompanyHandler {
	return &CompanyHandler{Companies: companies, now: time.Now}
}

type CompanyRequest struct {
	Name               string   `json:"name" validate:"required,max=255"`
	RegistrationNumber *string  `json:"registration_number" validate:"omitempty,max=100"`
	PAN                *string  `json:"pan" validate:"omitempty,len=10,alphanum"`
	GSTIN              *string  `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Industry           string   `json:"industry" validate:"required,industry"`
	SubIndustry        *string  `json:"sub_industry" validate:"omitempty,max=100"`
	FoundedDate        *string  `json:"founded_date"`
	EmployeeCount      *int     `json:"employee_count" validate:"omitempty,gte=0"`
	AnnualRevenue      *float64 `json:"annual_revenue" validate:"omitempty,gte=0"`
	City               *string  `json:"city" validate:"omitempty,max=100"`
	State              *string  `json:"state" validate:"omitempty,max=100"`
	Country            *string  `json:"country" validate:"omitempty,max=100"`
}

type CompanyUpdateRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=255"`
	RegistrationNumber *string  `json:"registration_number" validate:"omitempty,max=100"`
	PAN                *string  `json:"pan" validate:"omitempty,len=10,alphanum"`
	GSTIN              *string  `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Industry           *string  `json:"industry" validate:"omitempty,industry"`
	SubIndustry        *string  `json:"sub_industry" validate:"omitempty,max=100"`
	FoundedDate        *string  `json:"founded_date"`
	EmployeeCount      *int     `json:"employee_count" validate:"omitempty,gte=0"`
	AnnualRevenue      *float64 `json:"annual_revenue" validate:"omitempty,gte=0"`
	City               *string  `json:"city" validate:"omitempty,max=100"`
	State              *string  `json:"state" validate:"omitempty,max=100"`
	Country            *string  `json:"country" validate:"omitempty,max=100"`
}

// Create создает компанию текущего пользователя.
func (h *CompanyHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CompanyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	founded, err := h.parseFoundedDate(req.FoundedDate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	company, err := h.Companies.Create(c.Request().Context(), userID, repository.CompanyInput{
		Name:               &name,
		RegistrationNumber: trimOptional(req.RegistrationNumber),
		PAN:                upperOptional(req.PAN),
		GSTIN:              upperOptional(req.GSTIN),
		Industry:           &req.Industry,
		SubIndustry:        trimOptional(req.SubIndustry),
		FoundedDate:        founded,
		EmployeeCount:      req.EmployeeCount,
		AnnualRevenue:      req.AnnualRevenue,
		City:               trimOptional(req.City),
		State:              trimOptional(req.State),
		Country:            trimOptional(req.Country),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "registration number already exists")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, company)
}

// List возвращает компании текущего пользователя.
func (h *CompanyHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	companies, err := h.Companies.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, companies)
}

// Get возвращает компанию пользователя.
func (h *CompanyHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	companyID, err := parseCompanyID(c)
	if err != nil {
		return badRequest(c, "invalid company id")
	}

	company, err := h.Companies.GetByID(c.Request().Context(), userID, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Company not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, company)
}

// Update частично обновляет компанию пользователя.
func (h *CompanyHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	companyID, err := parseCompanyID(c)
	if err != nil {
		return badRequest(c, "invalid company id")
	}

	var req CompanyUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	founded, err := h.parseFoundedDate(req.FoundedDate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	company, err := h.Companies.Update(c.Request().Context(), userID, companyID, repository.CompanyInput{
		Name:               trimOptional(req.Name),
		RegistrationNumber: trimOptional(req.RegistrationNumber),
		PAN:                upperOptional(req.PAN),
		GSTIN:              upperOptional(req.GSTIN),
		Industry:           req.Industry,
		SubIndustry:        trimOptional(req.SubIndustry),
		FoundedDate:        founded,
		EmployeeCount:      req.EmployeeCount,
		AnnualRevenue:      req.AnnualRevenue,
		City:               trimOptional(req.City),
		State:              trimOptional(req.State),
		Country:            trimOptional(req.Country),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "Company not found")
		case errors.Is(err, repository.ErrConflict):
			return conflict(c, "registration number already exists")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, company)
}

// Delete удаляет компанию пользователя вместе с ее данными.
func (h *CompanyHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	companyID, err := parseCompanyID(c)
	if err != nil {
		return badRequest(c, "invalid company id")
	}

	if err := h.Companies.Delete(c.Request().Context(), userID, companyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "Company not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// parseFoundedDate разбирает дату основания; дата из будущего отклоняется.
func (h *CompanyHandler) parseFoundedDate(raw *string) (*time.Time, error) {
	value := trimOptional(raw)
	if value == nil {
		return nil, nil
	}

	founded, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, errors.New("invalid founded_date format")
	}
	if founded.After(h.now()) {
		return nil, errors.New("founded_date cannot be in the future")
	}

	return &founded, nil
}

func upperOptional(value *string) *string {
	trimmed := trimOptional(value)
	if trimmed == nil {
		return nil
	}

	upper := strings.ToUpper(*trimmed)
	return &upper
}
