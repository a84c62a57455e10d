// Package inputval validates request payloads with struct tags and strips
// markup from free-text fields before they reach a store.
package inputval

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/buildrite/buildrite/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  = validator.New(validator.WithRequiredStructEnabled())
	sanitizer = bluemonday.StrictPolicy()
)

func init() {
	// Human-readable field names come from the `label` tag when present.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	// orgsize validates against the fixed headcount buckets.
	_ = validate.RegisterValidation("orgsize", func(fl validator.FieldLevel) bool {
		return models.ValidOrgSize(fl.Field().String())
	})
}

// Result collects validation failures for a single payload.
type Result struct {
	errs []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.errs) > 0 }

// First returns the first failure message, or "".
func (r Result) First() string {
	if len(r.errs) == 0 {
		return ""
	}
	return r.errs[0]
}

// All returns every failure message.
func (r Result) All() []string { return r.errs }

// Validate runs the struct-tag rules on v and returns the collected failures.
func Validate(v any) Result {
	err := validate.Struct(v)
	if err == nil {
		return Result{}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{errs: []string{err.Error()}}
	}
	var r Result
	for _, fe := range verrs {
		r.errs = append(r.errs, message(fe))
	}
	return r
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "orgsize":
		return fmt.Sprintf("%s must be one of %s.", fe.Field(), strings.Join(models.OrgSizes, ", "))
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

// Sanitize strips all markup from a free-text field and trims whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(sanitizer.Sanitize(s))
}
