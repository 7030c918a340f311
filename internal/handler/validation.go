package handler

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

// NewValidator returns a validator with the goal-specific rules registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("metric", func(fl validator.FieldLevel) bool {
		_, err := models.ParseMetric(fl.Field().String())
		return err == nil
	})
	return validate
}

func validatePayload(validate *validator.Validate, payload interface{}) error {
	if err := validate.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return nil
}
