package strategyconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/highscan/internal/selection"
)

var validate = newValidator()

// newValidator reports fields by their yaml names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks struct tags, then that every chain entry builds.
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{Field: fieldPath(fe), Message: message(fe)}
		}
		return err
	}

	for i, p := range cfg.Chain {
		if !selection.IsRegistered(p.Name) {
			return ValidationError{
				Field:   fmt.Sprintf("chain[%d].name", i),
				Message: fmt.Sprintf("unknown predicate %q (available: %s)", p.Name, strings.Join(selection.Available(), ", ")),
			}
		}
		if _, err := selection.Build(p.Name, selection.Params(p.Params)); err != nil {
			return ValidationError{Field: fmt.Sprintf("chain[%d].params", i), Message: err.Error()}
		}
	}

	return nil
}

// fieldPath drops the root type: "Config.fetch.k_type" → "fetch.k_type"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("must match %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
