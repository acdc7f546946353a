// pkg/outcome/outcome.go - hard and soft results of the install steps.
//
// A ConfigError stops the run before anything is installed. An Advisory is a
// degraded result that is reported and then ignored.

package outcome

import (
	"errors"
	"fmt"
)

// ConfigError is a configuration problem detected before any side effect.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is, or wraps, a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Advisory describes a best-effort step that did not achieve its goal.
// The zero value means the step succeeded.
type Advisory struct {
	Message string
	Cause   error
}

// Degraded returns an Advisory with the given message and optional cause.
func Degraded(message string, cause error) Advisory {
	return Advisory{Message: message, Cause: cause}
}

// OK reports whether the step succeeded.
func (a Advisory) OK() bool { return a.Message == "" }

func (a Advisory) String() string {
	if a.Cause == nil {
		return a.Message
	}
	return fmt.Sprintf("%s: %v", a.Message, a.Cause)
}
