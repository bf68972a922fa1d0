package runtime

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Package-level validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidators()
}

var varNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// registerCustomValidators registers engine-specific validation functions.
func registerCustomValidators() {
	// varname validates that loop and component names are usable as
	// expression identifiers (counters are published as <name>.thisN).
	validate.RegisterValidation("varname", func(fl validator.FieldLevel) bool {
		return varNameRe.MatchString(fl.Field().String())
	})
}

// prepareDefinition applies struct-tag defaults and validates a definition
// record. Defaults run first so that omitted fields (updates, startType) get
// their documented values before validation sees them.
func prepareDefinition(def any) error {
	if def == nil {
		return fmt.Errorf("definition cannot be nil")
	}

	if err := defaults.Set(def); err != nil {
		return fmt.Errorf("failed to apply default values: %w", err)
	}

	if err := validate.Struct(def); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, fieldErr := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"field '%s' failed validation (rule: %s)",
					fieldErr.Field(),
					fieldErr.Tag(),
				))
			}
			return fmt.Errorf("validation failed:\n  - %s", strings.Join(errMessages, "\n  - "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}
