// Package logger holds the shared logrus instance. Library packages log
// through it so the CLI can raise verbosity in one place.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: true,
	})
	log.SetLevel(logrus.InfoLevel)

	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// SetDebug switches debug logging on or off at runtime. The DEBUG=1
// environment variable has the same effect without touching flags.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}
