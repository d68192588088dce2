package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger returns the process logger: debug level when verbose, info otherwise
func NewLogger(verbose bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
