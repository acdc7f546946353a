// pkg/logging/logging.go - leveled logging for setup-sqlserver.
//
// Messages are rendered in one of two styles:
// - on a GitHub Actions runner as workflow commands (::debug::, ::warning::, ...)
//   so the runner can annotate the job and honour RUNNER_DEBUG
// - on a local console as timestamped lines, colored by level

package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	// Define log levels.
	LevelError LogLevel = iota
	LevelWarn
	LevelNotice
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelNotice:
		return "NOTICE"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Output  io.Writer // Destination, defaults to os.Stdout
	Debug   bool      // Emit debug messages on a local console
	Actions bool      // Render GitHub Actions workflow commands
}

// Logger writes leveled messages, groups and workflow commands to a single stream.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	debug   bool
	actions bool
	now     func() time.Time
}

// singleton instance and sync.Once for thread-safe initialization
var (
	instance *Logger
	once     sync.Once
	swapMu   sync.RWMutex
)

// New creates a new Logger instance.
func New(cfg LoggerConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		out:     out,
		debug:   cfg.Debug,
		actions: cfg.Actions,
		now:     time.Now,
	}
}

// Init initializes the singleton Logger. Only the first call has any effect.
func Init(cfg LoggerConfig) {
	once.Do(func() {
		swapMu.Lock()
		instance = New(cfg)
		swapMu.Unlock()
	})
}

// ReInit replaces the singleton Logger, e.g. once the debug flag is known.
func ReInit(cfg LoggerConfig) {
	once.Do(func() {})
	swapMu.Lock()
	instance = New(cfg)
	swapMu.Unlock()
}

func current() *Logger {
	swapMu.RLock()
	l := instance
	swapMu.RUnlock()
	if l == nil {
		Init(LoggerConfig{})
		swapMu.RLock()
		l = instance
		swapMu.RUnlock()
	}
	return l
}

// IsDebug reports whether debug diagnostics were requested.
func IsDebug() bool {
	return current().debug
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	current().logMessage(LevelDebug, message, keyValues...)
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	current().logMessage(LevelInfo, message, keyValues...)
}

// Notice logs messages that should stand out without being a warning.
func Notice(message string, keyValues ...interface{}) {
	current().logMessage(LevelNotice, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	current().logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	current().logMessage(LevelError, message, keyValues...)
}

// StartGroup opens a collapsible section in the job log.
func StartGroup(name string) {
	current().startGroup(name)
}

// EndGroup closes the section opened by StartGroup.
func EndGroup() {
	current().endGroup()
}

// Group runs fn inside a collapsible section.
func Group(name string, fn func() error) error {
	l := current()
	l.startGroup(name)
	defer l.endGroup()
	return fn()
}

// Command issues a raw workflow command. It is a no-op off the runner.
func Command(command string, properties map[string]string, message string) {
	current().command(command, properties, message)
}

// Print writes text as-is, used for dumping file contents.
func Print(text string) {
	l := current()
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, strings.TrimRight(text, "\r\n"))
}

// Writer returns a writer sharing the logger's stream, for child process output.
func Writer() io.Writer {
	return &lockedWriter{l: current()}
}

type lockedWriter struct {
	l *Logger
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.out.Write(p)
}

// logMessage is the core logging method
func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	// debug lines always go to the runner; it hides them unless RUNNER_DEBUG is set
	if level == LevelDebug && !l.debug && !l.actions {
		return
	}

	text := message + formatKeyValues(keyValues)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.actions {
		switch level {
		case LevelDebug:
			fmt.Fprintf(l.out, "::debug::%s\n", escapeData(text))
		case LevelNotice:
			fmt.Fprintf(l.out, "::notice::%s\n", escapeData(text))
		case LevelWarn:
			fmt.Fprintf(l.out, "::warning::%s\n", escapeData(text))
		case LevelError:
			fmt.Fprintf(l.out, "::error::%s\n", escapeData(text))
		default:
			fmt.Fprintln(l.out, text)
		}
		return
	}

	ts := l.now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %-6s %s", ts, level.String(), text)
	if c := levelColor(level); c != nil {
		c.Fprintln(l.out, line)
		return
	}
	fmt.Fprintln(l.out, line)
}

func (l *Logger) startGroup(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.actions {
		fmt.Fprintf(l.out, "::group::%s\n", escapeData(name))
		return
	}
	color.New(color.Bold).Fprintf(l.out, "==> %s\n", name)
}

func (l *Logger) endGroup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.actions {
		fmt.Fprintln(l.out, "::endgroup::")
	}
}

func (l *Logger) command(command string, properties map[string]string, message string) {
	if !l.actions {
		return
	}
	var b strings.Builder
	b.WriteString("::")
	b.WriteString(command)
	if len(properties) > 0 {
		keys := make([]string, 0, len(properties))
		for k := range properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(escapeProperty(properties[k]))
		}
	}
	b.WriteString("::")
	b.WriteString(escapeData(message))

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, b.String())
}

func levelColor(level LogLevel) *color.Color {
	switch level {
	case LevelError:
		return color.New(color.FgRed)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelNotice:
		return color.New(color.FgCyan)
	case LevelDebug:
		return color.New(color.FgBlue)
	default:
		return nil
	}
}

// formatKeyValues renders trailing key/value pairs as " key=value".
func formatKeyValues(keyValues []interface{}) string {
	if len(keyValues) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(keyValues); i += 2 {
		key := fmt.Sprintf("%v", keyValues[i])
		if i+1 >= len(keyValues) {
			fmt.Fprintf(&b, " %s", key)
			break
		}
		val := fmt.Sprintf("%v", keyValues[i+1])
		if strings.ContainsAny(val, " \t\"") {
			val = fmt.Sprintf("%q", val)
		}
		fmt.Fprintf(&b, " %s=%s", key, val)
	}
	return b.String()
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}
