package server

import (
	"github.com/go-playground/validator/v10"

	"example.com/sme-finhealth/backend/internal/handlers"
)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator создает валидатор на базе go-playground/validator с правилом industry.
func NewValidator() (*CustomValidator, error) {
	v := validator.New()
	if err := v.RegisterValidation("industry", handlers.ValidateIndustry); err != nil {
		return nil, err
	}
	return &CustomValidator{validator: v}, nil
}

// Validate запускает проверку структуры по тегам.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
