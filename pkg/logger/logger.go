package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates the application logger. Output is always JSON so log
// shippers can ingest it without a parsing stage.
func New(level string) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "time",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	})
	log.SetOutput(os.Stdout)

	// Env override wins so operators can turn on debug without a config edit.
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
