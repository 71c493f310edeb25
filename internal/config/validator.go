package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	slugPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report fields under their YAML names so errors match what operators type.
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(field.Name)
			}
			return name
		})

		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateRun checks a single run before any network call is made.
func ValidateRun(run Run) error {
	v := validatorInstance()
	if err := v.Struct(run.Connection); err != nil {
		return convertValidationError(err)
	}
	if err := v.Struct(run.Settings); err != nil {
		return convertValidationError(err)
	}
	return ValidateResource(run.Resource)
}

// ValidateResource validates a resource declaration independent of the rest
// of the configuration.
func ValidateResource(res Resource) error {
	v := validatorInstance()
	if err := v.Struct(res); err != nil {
		return convertValidationError(err)
	}

	switch res.Kind {
	case "variable":
		if res.Variable == nil {
			return syncerrors.NewValidationError("variable", "variable configuration is required", nil)
		}
		if err := v.Struct(res.Variable); err != nil {
			return convertValidationError(err)
		}
	case "environment":
		if res.Environment == nil {
			return syncerrors.NewValidationError("environment", "environment configuration is required", nil)
		}
		if err := v.Struct(res.Environment); err != nil {
			return convertValidationError(err)
		}
	default:
		return syncerrors.NewValidationError("kind", fmt.Sprintf("unknown resource kind %q", res.Kind), nil)
	}

	return nil
}

// ValidateManifest performs schema validation of every entry and rejects
// natural keys declared twice for the same kind.
func ValidateManifest(m *Manifest) error {
	if m == nil {
		return syncerrors.NewValidationError("manifest", "manifest is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(m); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]int, len(m.Resources))
	for i, res := range m.Resources {
		if err := ValidateResource(res); err != nil {
			return prefixField(fieldForResource(i), err)
		}

		id := res.Kind + "/" + res.NaturalKey()
		if first, exists := seen[id]; exists {
			return syncerrors.NewValidationError(
				fieldForResource(i),
				fmt.Sprintf("duplicate %s %q (first declared at resources[%d])", res.Kind, res.NaturalKey(), first),
				nil,
			)
		}
		seen[id] = i
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		if ve.Param() != "" {
			msg = fmt.Sprintf("%s failed validation for tag '%s=%s'", field, ve.Tag(), ve.Param())
		}
		return syncerrors.NewValidationError(field, msg, err)
	}

	return syncerrors.NewValidationError("config", err.Error(), err)
}

// yamlFieldName drops the top-level struct name from the namespace.
func yamlFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func prefixField(prefix string, err error) error {
	if ve, ok := err.(*syncerrors.ValidationError); ok {
		return syncerrors.NewValidationError(prefix+"."+ve.Field, ve.Message, ve.Err)
	}
	return err
}

func fieldForResource(index int) string {
	return fmt.Sprintf("resources[%d]", index)
}
