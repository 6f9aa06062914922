package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pevans/tally/dates"
)

// ValidationError lists every invalid field, keyed by its YAML path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use YAML key names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks cfg's struct tags, then the values tags cannot express:
// weekday names and the item patterns.
func Validate(cfg *FileConfig) error {
	fields := make(map[string]string)

	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		for _, e := range validationErrs {
			fields[fieldPath(e)] = friendlyMessage(e)
		}
	}

	for i, day := range cfg.Calendar.Weekend {
		if _, err := dates.ParseWeekday(day); err != nil {
			fields[fmt.Sprintf("calendar.weekend[%d]", i)] = "must be a weekday name"
		}
	}
	if _, err := cfg.Extractor(nil); err != nil {
		fields["items.pattern"] = err.Error()
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath turns a validator namespace into the key path used in the YAML
// file. The selector sections are inlined at the top level.
func fieldPath(e validator.FieldError) string {
	_, path, ok := strings.Cut(e.Namespace(), ".")
	if !ok {
		return e.Field()
	}
	return strings.TrimPrefix(path, "Scraper.")
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date like " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
