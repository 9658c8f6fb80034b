package applications

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"jobassist-backend/internal/shared/apperr"
)

// RegisterValidators adds the application_status and isodate tags to v.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("application_status", validStatus)
	_ = v.RegisterValidation("isodate", validISODate)
}

func validStatus(fl validator.FieldLevel) bool {
	return IsValidStatus(fl.Field().String())
}

func validISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

// IsValidStatus reports whether s is one of Statuses.
func IsValidStatus(s string) bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

func newValidator() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// validationError flattens validator errors into one apperr.ErrInvalidInput.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "application_status":
			msgs = append(msgs, fmt.Sprintf("status must be one of %s", strings.Join(Statuses, ", ")))
		case "isodate":
			msgs = append(msgs, "date must be YYYY-MM-DD")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, strings.Join(msgs, "; "))
}
