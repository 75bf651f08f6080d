package transport

import (
	"realty_pipeline_backend/internal/leads/domain"
	"realty_pipeline_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the lead-specific tags used by the request DTOs.
func RegisterValidations(v *validator.Validator) error {
	return v.RegisterValidation("pipeline_stage", func(fl playground.FieldLevel) bool {
		return domain.IsKnownStage(domain.Stage(fl.Field().String()))
	})
}
