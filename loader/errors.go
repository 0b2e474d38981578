package loader

import "fmt"

// ConfigurationError - Invalid session settings, raised before the device
// is touched
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
