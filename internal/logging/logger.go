package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: text in development, JSON everywhere else.
func New(level string, appEnv string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if appEnv == "development" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}
