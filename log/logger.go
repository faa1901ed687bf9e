// Package log builds the structured loggers used across the server.
package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger configures logger and returns it with the application and
// environment fields attached. If outputFile cannot be opened the logger
// keeps its current output.
func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}

// New creates a JSON logger at the named level writing to out.
// Unknown levels fall back to info.
func New(out io.Writer, level, outputFile, application, environment string) logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	fl := Logger(logger, outputFile, application, environment)
	if err != nil {
		fl.WithField("level", level).Warn("unknown log level, using info")
	}
	return fl
}
