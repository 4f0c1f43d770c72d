package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"danicandles/internal/usecase"

	"github.com/go-playground/validator/v10"
)

type requestValidator struct {
	v *validator.Validate
}

// Usecaseは interface を依存注入
func NewRequestValidator() usecase.RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーのfield名はjsonタグ（camelCase）に揃える
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &requestValidator{v: v}
}

func (rv *requestValidator) ValidateCreateOrder(in usecase.CreateOrderInput) error {
	return rv.validate(in)
}

func (rv *requestValidator) ValidateCheckout(in usecase.CheckoutInput) error {
	return rv.validate(in)
}

func (rv *requestValidator) ValidateStatusUpdate(in usecase.UpdateOrderStatusInput) error {
	return rv.validate(in)
}

func (rv *requestValidator) validate(s interface{}) error {
	err := rv.v.Struct(s)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return usecase.NewValidationError(usecase.FieldError{Field: "body", Message: "invalid request"})
	}

	fields := make([]usecase.FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		fields = append(fields, usecase.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return usecase.NewValidationError(fields...)
}

// "CreateOrderInput.items[0].quantity" -> "items[0].quantity"
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// tagごとのメッセージ
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "alpha":
		return "must contain letters only"
	case "uuid":
		return "must be a UUID"
	case "email":
		return "must be an email address"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return "is invalid"
	}
}
