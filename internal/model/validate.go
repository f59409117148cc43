package model

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/dealership/internal/apperr"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type yearKey struct{}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	mustRegister(v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	}))
	mustRegister(v.RegisterValidationCtx("notfuture", func(ctx context.Context, fl validator.FieldLevel) bool {
		year, ok := ctx.Value(yearKey{}).(int)
		return ok && fl.Field().Int() <= int64(year)
	}))

	return v
}

func mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("registering validation: %v", err))
	}
}

// validateStruct runs the tag validations on s and converts failures into a
// *apperr.ValidationError listing every offending field.
func validateStruct(ctx context.Context, s any) error {
	err := validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating %T: %w", s, err)
	}

	verr := apperr.Validation()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(ctx, fe))
	}
	return verr
}

func fieldMessage(ctx context.Context, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "bcryptlen":
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	case "notfuture":
		year, _ := ctx.Value(yearKey{}).(int)
		return fmt.Sprintf("must not be later than %d", year)
	default:
		return "is invalid"
	}
}
