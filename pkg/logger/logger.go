package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CLDWare/evaluations-backend/config"
)

var (
	Logger      *logrus.Logger
	initialized bool
)

var logLevels = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
}

func init() {
	// Usable before Init, e.g. while the .env file is being loaded
	Logger = newLogger(logrus.InfoLevel)
}

func newLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stdout
	l.Level = level
	l.Formatter = &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		TimestampFormat:        "2006/01/02 15:04:05",
		FullTimestamp:          true,
	}
	return l
}

// Init initializes the logger with configuration
func Init() {
	if initialized {
		return
	}

	cfg := config.Get()
	level, ok := logLevels[strings.ToLower(cfg.Logging.Level)]
	if !ok {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	initialized = true
}

// WithFields returns an entry for structured request logging
func WithFields(fields map[string]any) *logrus.Entry {
	return Logger.WithFields(logrus.Fields(fields))
}

func Debug(v ...any) {
	Logger.Debug(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func Info(v ...any) {
	Logger.Info(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func Warn(v ...any) {
	Logger.Warn(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func Err(v ...any) {
	Logger.Error(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
