package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("config validation failed")

var validate = newValidator()

// newValidator reports fields by their koanf key so messages match the
// YAML and APP_ names an operator actually sets.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Validate checks field rules and the cross-field constraints the tags
// cannot express. All problems are reported together.
func (c *Config) Validate() error {
	var problems []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		for _, fe := range fieldErrs {
			problems = append(problems, errors.New(fieldMessage(fe)))
		}
	}

	problems = append(problems, c.crossFieldErrors()...)

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w:\n%w", ErrInvalid, errors.Join(problems...))
}

func (c *Config) crossFieldErrors() []error {
	var errs []error

	retry := c.Client.Retry
	if retry.MaxInterval > 0 && retry.MaxInterval < retry.InitialInterval {
		errs = append(errs, fmt.Errorf("client.retry.max_interval (%s) must not be below client.retry.initial_interval (%s)",
			retry.MaxInterval, retry.InitialInterval))
	}

	return errs
}

func fieldMessage(fe validator.FieldError) string {
	path := keyPath(fe.Namespace())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return path + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", path, keyPath(param))
	case "min":
		return fmt.Sprintf("%s must be at least %s", path, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", path, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", path, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", path, param, fmt.Sprint(fe.Value()))
	case "url":
		return path + " must be a valid URL"
	case "startswith":
		return fmt.Sprintf("%s must start with %q", path, param)
	default:
		return fmt.Sprintf("%s failed %q", path, fe.Tag())
	}
}

// keyPath drops the root type name from a validator namespace:
// "Config.server.rate_limit.burst" becomes "server.rate_limit.burst".
// required_if params ("Enabled true") get the field lowercased instead.
func keyPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}

	field, value, ok := strings.Cut(namespace, " ")
	if ok {
		return strings.ToLower(field) + " is " + value
	}

	return namespace
}
