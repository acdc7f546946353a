// pkg/actions/inputs.go - reading GitHub Action inputs.

package actions

import (
	"fmt"
	"os"
	"strings"
)

// InputSource is the read side of the action inputs.
type InputSource interface {
	GetInput(name string) string
	GetBooleanInput(name string) (bool, error)
	GetMultilineInput(name string) []string
}

// EnvInputs reads inputs the way the runner passes them: as INPUT_<NAME>
// environment variables. Values set with Set take precedence.
type EnvInputs struct {
	getenv    func(string) string
	overrides map[string]string
}

// NewEnvInputs returns an input reader backed by getenv, or os.Getenv when nil.
func NewEnvInputs(getenv func(string) string) *EnvInputs {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &EnvInputs{getenv: getenv, overrides: make(map[string]string)}
}

// Set overrides an input, e.g. from a command line flag.
func (e *EnvInputs) Set(name, value string) {
	e.overrides[name] = value
}

// GetInput returns the trimmed value of an input, or "" when unset.
func (e *EnvInputs) GetInput(name string) string {
	if v, ok := e.overrides[name]; ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(e.getenv(envName(name)))
}

// GetBooleanInput parses an input using the YAML 1.2 core schema booleans.
// An unset input is false.
func (e *EnvInputs) GetBooleanInput(name string) (bool, error) {
	switch v := e.GetInput(name); v {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE", "":
		return false, nil
	default:
		return false, fmt.Errorf("Input does not meet YAML 1.2 \"Core Schema\" specification: %s\n"+
			"Support boolean input list: `true | True | TRUE | false | False | FALSE`", name)
	}
}

// GetMultilineInput splits an input on newlines, dropping empty lines.
func (e *EnvInputs) GetMultilineInput(name string) []string {
	var lines []string
	for _, line := range strings.Split(e.GetInput(name), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func envName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}
