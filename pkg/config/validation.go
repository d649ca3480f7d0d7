package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/guardfs/internal/telemetry"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("profiletype", func(fl validator.FieldLevel) bool {
			_, err := telemetry.ParseProfileTypes([]string{fl.Field().String()})
			return err == nil
		})
	})
	return validate
}

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics.port and api.port must differ (both %d)", cfg.API.Port)
	}

	return nil
}

// formatValidationErrors joins field errors into one message of the form
// "Config.Logging.Level: failed 'oneof' (value: xml)".
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value: %v)", fe.Namespace(), tag, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
