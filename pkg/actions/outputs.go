// pkg/actions/outputs.go - step outputs and secret masking.

package actions

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

// Outputs writes step outputs to the file named by GITHUB_OUTPUT. Without
// one it falls back to the set-output workflow command.
type Outputs struct {
	file string
}

// NewOutputs returns an output writer for file, which may be empty.
func NewOutputs(file string) *Outputs {
	return &Outputs{file: file}
}

// SetOutput records a step output.
func (o *Outputs) SetOutput(name, value string) error {
	if o.file == "" {
		logging.Command("set-output", map[string]string{"name": name}, value)
		logging.Debug("Output set", "name", name)
		return nil
	}

	entry, err := fileCommand(name, value)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(o.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write output %s: %w", name, err)
	}
	return nil
}

// AddMask registers value as a secret so the runner redacts it from logs.
func AddMask(value string) {
	if value == "" {
		return
	}
	logging.Command("add-mask", nil, value)
}

// fileCommand renders name and value as a heredoc entry.
func fileCommand(name, value string) (string, error) {
	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) {
		return "", fmt.Errorf("unexpected input: name should not contain the delimiter %q", delimiter)
	}
	if strings.Contains(value, delimiter) {
		return "", fmt.Errorf("unexpected input: value should not contain the delimiter %q", delimiter)
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter), nil
}
