package logger

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/kjk/common/filerotate"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// FilePrefix starts the name of every daily file created by OpenFile
const FilePrefix = "logkv-"

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name such as "info" or "WARN" to a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger provides levelled logging capabilities
type Logger struct {
	*log.Logger
	level LogLevel
}

// New creates a logger writing to out
func New(level LogLevel, out io.Writer) *Logger {
	return &Logger{
		Logger: log.New(out, "", log.LstdFlags),
		level:  level,
	}
}

// OpenFile opens a log file in dir that rotates daily, named
// logkv-YYYY-MM-DD.txt. Existing files are appended to. The caller closes
// the returned file.
func OpenFile(dir string) (*filerotate.File, error) {
	f, err := filerotate.NewDaily(dir, FilePrefix, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Level returns the current logging level
func (l *Logger) Level() LogLevel {
	return l.level
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.level <= DEBUG {
		l.Printf("[DEBUG] "+format, v...)
	}
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	if l.level <= INFO {
		l.Printf("[INFO] "+format, v...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	if l.level <= WARN {
		l.Printf("[WARN] "+format, v...)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	if l.level <= ERROR {
		l.Printf("[ERROR] "+format, v...)
	}
}

// WithFields creates a logger that prefixes every message with fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, fields[k]))
	}

	return &Logger{
		Logger: log.New(l.Writer(), fmt.Sprintf("[%s] ", strings.Join(pairs, " "))+l.Prefix(), l.Flags()),
		level:  l.level,
	}
}
