// Package log centralizes per-subsystem loggers for the peg-out graph
// module, following the lnd convention of a shared btclog.Backend with one
// named sub-logger per package.
package log

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate"
)

// Disabled is a logger that discards all output.
var Disabled = btclog.Disabled

// backend is the shared logging backend behind every SubLogger. Its output
// goes to standard error until InitLogRotator has been called, and to the
// rotator after that.
var backend = btclog.NewBackend(logWriter{})

// logWriter writes to standard error until a rotator has been installed
// via InitLogRotator, at which point it forwards to the rotator.
type logWriter struct{}

var rotator *logrotate.Rotator

func (logWriter) Write(p []byte) (int, error) {
	if rotator == nil {
		return os.Stderr.Write(p)
	}
	return rotator.Write(p)
}

// InitLogRotator initializes the log rotation system, writing logs to
// logFile and rotating every file of maxSize megabytes, keeping a maximum
// of maxRolls rolled files.
func InitLogRotator(logFile string, maxSize, maxRolls int) error {
	r, err := logrotate.NewRotator(logFile, maxSize)
	if err != nil {
		return err
	}
	r.MaxRolls = maxRolls
	rotator = r
	return nil
}

// SubLogger returns a new logger for the given subsystem tag, backed by the
// shared rotating backend. Subsystem tags follow the lnd convention of a
// short, fixed-width, all-caps mnemonic (e.g. "GRPH", "PSGN", "ACTN").
func SubLogger(subsystem string) btclog.Logger {
	l := backend.Logger(subsystem)
	l.SetLevel(btclog.LevelInfo)
	return l
}

// SetLevel sets the logging level for every logger previously obtained via
// SubLogger whose tag is passed in. Unknown tags are ignored.
func SetLevel(subsystem string, level btclog.Level) {
	backend.Logger(subsystem).SetLevel(level)
}
