package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is usable for the current
// environment. Provider credentials are deliberately not required: their
// absence disables the corresponding feature at call time.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.ServerPort == "" {
		errs = append(errs, "server_port must be set")
	}

	if IsProduction() {
		if cfg.JWTSecret == "" {
			errs = append(errs, "JWT_SECRET is required in production")
		}
		if cfg.DBPassword == "" {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
		if cfg.DBSSLMode == "disable" {
			errs = append(errs, "DB_SSL_MODE must not be 'disable' in production")
		}
	}

	if cfg.FreePlanMonthlyLimit <= 0 || cfg.ProPlanMonthlyLimit <= 0 {
		errs = append(errs, "plan monthly limits must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}
