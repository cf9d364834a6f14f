package rules

import (
	"fmt"

	"radiograb/internal/services"
)

// ConfigError reports an unusable value in a rule table.
type ConfigError struct {
	Rule  string
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %q: %s = %q: %v", e.Rule, e.Key, e.Value, e.Err)
}

// Unwrap exposes the configuration marker alongside the cause.
func (e *ConfigError) Unwrap() []error {
	return []error{services.ErrConfiguration, e.Err}
}
