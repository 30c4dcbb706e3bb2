package logger

import (
	"os"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

func init() {
	// Prefer stdout everywhere (plays well with systemd/docker).
	logger.Out = os.Stdout
	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	level := log.InfoLevel
	if os.Getenv("ENV") == "" || os.Getenv("LOG_LEVEL") == "debug" {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
}

// GetLogger returns an entry annotated with the caller location.
func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)
	functionObject := runtime.FuncForPC(function)
	return logger.WithFields(log.Fields{
		"function": functionObject.Name(),
		"file":     file,
		"line":     line,
	})
}
