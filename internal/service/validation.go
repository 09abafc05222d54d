package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

const invalidFormMessage = "Existem campos inválidos no formulário"

// inputValidator runs struct-tag validation on service inputs. Each field
// names itself with a `field` tag and carries its user-facing message in `msg`.
type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})
	return &inputValidator{validate: v}
}

// check returns a VALIDATION_FAILED error listing every offending field.
func (iv *inputValidator) check(input any) error {
	err := iv.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	inputType := reflect.TypeOf(input)
	if inputType.Kind() == reflect.Pointer {
		inputType = inputType.Elem()
	}

	violations := make([]apperrors.FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		message := fe.Error()
		if sf, ok := inputType.FieldByName(fe.StructField()); ok {
			if msg := sf.Tag.Get("msg"); msg != "" {
				message = msg
			}
		}
		violations = append(violations, apperrors.FieldViolation{Field: fe.Field(), Message: message})
	}
	return apperrors.NewValidationError(invalidFormMessage, violations...)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
