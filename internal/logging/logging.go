// Package logging configures the process-wide logrus logger and provides
// request and event helpers shared by the CLI, TUI, and HTTP server.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	logFile *lumberjack.Logger
)

// Init routes log output to stdout and, when logPath is set, a rotating file.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		logFile = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// InitFileOnly is used by the TUI, where stdout belongs to the terminal UI.
func InitFileOnly(logPath string) error {
	if err := Init(logPath); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(logFile)
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// SetLogLevel maps a level name onto logrus. "quiet" silences everything
// short of a fatal error.
func SetLogLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "verbose":
		log.SetLevel(log.DebugLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "quiet", "silent":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

func LogEvent(format string, args ...any) {
	log.Info(fmt.Sprintf(format, args...))
}

// LogError records a failed operation together with its cause.
func LogError(err error, format string, args ...any) {
	log.WithError(err).Error(fmt.Sprintf(format, args...))
}

// maxPayloadRunes caps how much of a request or response body reaches the log.
const maxPayloadRunes = 2000

// LogRequest records a payload crossing the boundary to a model host at debug level.
func LogRequest(direction, host, model, op string, payload any) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	log.WithFields(requestFields(direction, host, model, op, payload)).Debug("model traffic")
}

func requestFields(direction, host, model, op string, payload any) log.Fields {
	orUnknown := func(s string) string {
		if s = strings.TrimSpace(s); s == "" {
			return "unknown"
		}
		return s
	}
	fields := log.Fields{
		"direction": strings.ToUpper(strings.TrimSpace(direction)),
		"host":      orUnknown(host),
		"model":     orUnknown(model),
		"payload":   clipPayload(formatPayload(payload)),
	}
	if op = strings.TrimSpace(op); op != "" {
		fields["op"] = op
	}
	return fields
}

func clipPayload(s string) string {
	if utf8.RuneCountInString(s) <= maxPayloadRunes {
		return s
	}
	r := []rune(s)
	return fmt.Sprintf("%s... (%d more runes)", string(r[:maxPayloadRunes]), len(r)-maxPayloadRunes)
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
