// Package validation checks request DTOs at the HTTP boundary with
// struct tags and a few domain rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/timeline"
	"jirai-backend/internal/domain/uimode"
	appErrors "jirai-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared instance.
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a validator that reports JSON field names and knows
// the domain enums: nodetype, dashboard, layout, zoom and sidebartab.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	must("nodetype", func(fl validator.FieldLevel) bool {
		return node.Type(fl.Field().String()).Check() == nil
	})
	must("dashboard", func(fl validator.FieldLevel) bool {
		return shared.DashboardType(fl.Field().String()).Valid()
	})
	must("layout", func(fl validator.FieldLevel) bool {
		return shared.LayoutDirection(fl.Field().String()).Valid()
	})
	must("zoom", func(fl validator.FieldLevel) bool {
		return timeline.ZoomLevel(fl.Field().String()).Valid()
	})
	must("sidebartab", func(fl validator.FieldLevel) bool {
		return uimode.SidebarTab(fl.Field().String()).Valid()
	})
	return &Validator{validate: v}
}

// Validate checks v and returns a validation AppError listing every failed
// field.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.NewValidation(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, message(fe))
	}
	return appErrors.NewValidation(strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "nodetype":
		return fmt.Sprintf("%s %q is not a creatable node type", field, fe.Value())
	case "dashboard", "layout", "zoom", "sidebartab":
		return fmt.Sprintf("%s %q is not a valid %s", field, fe.Value(), fe.Tag())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
