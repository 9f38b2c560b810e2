package validator

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string)
	for _, fe := range verrs {
		errs[fe.Field()] = fe.Tag()
	}
	return errs
}

// Summary flattens a Validate result into "field: tag" pairs, sorted.
func Summary(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for field, tag := range errs {
		parts = append(parts, field+": "+tag)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
