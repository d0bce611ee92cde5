package docmap

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Validator checks a raw document against a model's rule set. A nil return
// is a pass; a non-nil return carries the failure detail. The creating
// pipeline joins failures with ErrValidationFailed.
type Validator interface {
	Validate(ctx context.Context, doc Document) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, doc Document) error

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, doc Document) error {
	return f(ctx, doc)
}

// MapValidator validates documents field by field against a rules map, e.g.
// {"name": "required", "email": "required,email"}. Nested documents are
// validated with nested rule maps.
type MapValidator struct {
	rules    map[string]any
	validate *validator.Validate
}

// NewMapValidator creates a MapValidator for the given rules.
func NewMapValidator(rules map[string]any) *MapValidator {
	return &MapValidator{
		rules:    rules,
		validate: validator.New(),
	}
}

// Validate reports every failing field, in field order, as one joined error.
func (m *MapValidator) Validate(ctx context.Context, doc Document) error {
	failed := m.validate.ValidateMapCtx(ctx, doc, m.rules)
	if len(failed) == 0 {
		return nil
	}

	fields := make([]string, 0, len(failed))
	for field := range failed {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	errs := make([]error, 0, len(fields))
	for _, field := range fields {
		errs = append(errs, fmt.Errorf("field %q: %v", field, failed[field]))
	}
	return errors.Join(errs...)
}

var (
	_ Validator = ValidatorFunc(nil)
	_ Validator = (*MapValidator)(nil)
)
