// pkg/docs/docs.go - keeps the README usage section in step with action.yml.

package docs

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StartToken = "<!-- start usage -->"
	EndToken   = "<!-- end usage -->"

	descriptionWidth = 80
)

var (
	multiSpace    = regexp.MustCompile(` +`)
	paragraphGap  = regexp.MustCompile(`\n[ ]*\r?\n`)
	trailingSpace = " \t\r\n"
)

type actionInput struct {
	Description string  `yaml:"description"`
	Default     *string `yaml:"default"`
}

type actionFile struct {
	Inputs yaml.Node `yaml:"inputs"`
}

// UpdateUsageFile rewrites the usage section of the README at readmePath
// from the action metadata at actionPath.
func UpdateUsageFile(actionReference, actionPath, readmePath string) error {
	action, err := os.ReadFile(actionPath)
	if err != nil {
		return fmt.Errorf("failed to read action metadata: %w", err)
	}
	readme, err := os.ReadFile(readmePath)
	if err != nil {
		return fmt.Errorf("failed to read README: %w", err)
	}
	updated, err := UpdateUsage(actionReference, action, string(readme))
	if err != nil {
		return err
	}
	return os.WriteFile(readmePath, []byte(updated), 0o644)
}

// UpdateUsage replaces the text between StartToken and EndToken in readme
// with a workflow snippet listing every input of the action.
func UpdateUsage(actionReference string, action []byte, readme string) (string, error) {
	if actionReference == "" {
		return "", fmt.Errorf("parameter actionReference must not be empty")
	}

	var meta actionFile
	if err := yaml.Unmarshal(action, &meta); err != nil {
		return "", fmt.Errorf("failed to parse action metadata: %w", err)
	}

	start := strings.Index(readme, StartToken)
	if start < 0 {
		return "", fmt.Errorf("start token '%s' not found", StartToken)
	}
	end := strings.Index(readme, EndToken)
	if end < 0 {
		return "", fmt.Errorf("end token '%s' not found", EndToken)
	}
	if end < start {
		return "", fmt.Errorf("start token must appear before end token")
	}

	lines := []string{
		readme[:start+len(StartToken)],
		"```yaml",
		"- uses: " + actionReference,
		"  with:",
	}

	if meta.Inputs.Kind != 0 && meta.Inputs.Kind != yaml.MappingNode {
		return "", fmt.Errorf("inputs must be a mapping")
	}
	for i := 0; i+1 < len(meta.Inputs.Content); i += 2 {
		key := meta.Inputs.Content[i].Value
		var input actionInput
		if err := meta.Inputs.Content[i+1].Decode(&input); err != nil {
			return "", fmt.Errorf("input %s: %w", key, err)
		}
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, inputLines(key, input)...)
	}

	lines = append(lines, "```", readme[end:])
	return strings.Join(lines, "\n"), nil
}

func inputLines(key string, input actionInput) []string {
	var lines []string
	for _, segment := range wrap(input.Description, descriptionWidth) {
		lines = append(lines, strings.TrimRight("    # "+segment, trailingSpace))
	}

	value := "''"
	if input.Default != nil {
		def := *input.Default
		if paragraphGap.MatchString(strings.TrimRight(input.Description, trailingSpace)) {
			lines = append(lines, "    #")
		}
		lines = append(lines, "    # Default: "+def)
		switch def {
		case "true", "false":
			value = def
		default:
			value = "'" + def + "'"
		}
	}
	return append(lines, fmt.Sprintf("    %s: %s", key, value))
}

// wrap splits a description into comment lines no wider than width where a
// space allows it. Each returned segment keeps its trailing space or newline.
func wrap(description string, width int) []string {
	desc := strings.TrimRight(description, trailingSpace)
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	desc = multiSpace.ReplaceAllString(desc, " ")
	desc = strings.ReplaceAll(desc, " \n", "\n")

	rest := []rune(desc)
	var segments []string
	for len(rest) > 0 {
		segment := rest
		if len(rest) > width {
			segment = rest[:width+1]
			for len(segment) > 0 && segment[len(segment)-1] != ' ' && segment[len(segment)-1] != '\n' {
				segment = segment[:len(segment)-1]
			}
			// no usable break point
			if float64(len(segment)) < float64(width)*0.67 {
				segment = rest
			}
		}
		for i, r := range segment {
			if r == '\n' {
				segment = segment[:i+1]
				break
			}
		}
		segments = append(segments, string(segment))
		rest = rest[len(segment):]
	}
	return segments
}
