package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-inventory-ledger/internal/model"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

func (e ErrorResponse) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("field '%s' failed on tag '%s=%s'", e.FailedField, e.Tag, e.Value)
	}
	return fmt.Sprintf("field '%s' failed on tag '%s'", e.FailedField, e.Tag)
}

var validate = validator.New()

// Batch ids are short operator-typed codes such as "B-001".
var batchIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-/]{0,99}$`)

func init() {
	// yearmonth: "YYYY-MM" expiry
	validate.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		_, err := model.ParseExpiry(fl.Field().String())
		return err == nil
	})

	validate.RegisterValidation("batchid", func(fl validator.FieldLevel) bool {
		return batchIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "request", Tag: "invalid"}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FirstError formats the first failure the way handlers report it, or ""
// when data is valid.
func FirstError(data interface{}) string {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return ""
	}
	return "Validation failed: " + errs[0].Error()
}
