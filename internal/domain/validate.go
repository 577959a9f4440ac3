package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError names one failing field and the rule it broke.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError lists every problem found in a profile.
type ValidationError struct {
	fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return fmt.Sprintf("domain: invalid profile: %s", strings.Join(parts, ", "))
}

// Fields returns a copy of the failing fields.
func (e *ValidationError) Fields() []FieldError {
	out := make([]FieldError, len(e.fields))
	copy(out, e.fields)
	return out
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func profileValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return ValidSlug(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks the profile against the schema invariants.
func Validate(p BusinessProfile) error {
	var fields []FieldError

	if err := profileValidator().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("domain: validate profile: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: trimNamespace(fe.Namespace()), Rule: fe.Tag()})
		}
	}

	for _, day := range Weekdays {
		entry, ok := p.BusinessHours.Day(day)
		if !ok {
			fields = append(fields, FieldError{Field: "businessHours." + string(day), Rule: "required"})
			continue
		}
		if !entry.Open {
			continue
		}
		if _, err := ParseClock(entry.Start); err != nil {
			fields = append(fields, FieldError{Field: "businessHours." + string(day) + ".start", Rule: "clock"})
		}
		if _, err := ParseClock(entry.End); err != nil {
			fields = append(fields, FieldError{Field: "businessHours." + string(day) + ".end", Rule: "clock"})
		}
	}

	if err := p.Logo.Validate(); err != nil {
		fields = append(fields, FieldError{Field: "logo", Rule: "exclusive"})
	}
	for i, img := range p.Images {
		if err := img.Validate(); err != nil {
			fields = append(fields, FieldError{Field: fmt.Sprintf("images[%d]", i), Rule: "exclusive"})
		}
	}
	for i, svc := range p.Services {
		if err := svc.Image.Validate(); err != nil {
			fields = append(fields, FieldError{Field: fmt.Sprintf("services[%d].image", i), Rule: "exclusive"})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
