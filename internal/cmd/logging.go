package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger returns the stderr diagnostics logger. Only warnings are shown
// unless debug is set.
func newLogger(w io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    !isTerminal(w),
	})
	log.SetLevel(logrus.WarnLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// newServerLogger returns the structured JSON logger used by `serve`.
func newServerLogger(w io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
