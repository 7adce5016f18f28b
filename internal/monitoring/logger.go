// Package monitoring carries the process-wide diagnostic logger used by the
// interaction engine. Hot paths (snap resolution, routing, persistence) log
// through Logf with a bracketed subsystem tag so a whole subsystem can be
// grepped or muted at once.
package monitoring

import (
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf is the verbose logger for per-frame events (snap hits, hover
// transitions). It is a no-op unless MEP_DEBUG is set in the environment or
// SetDebug(true) is called; drag frames are far too chatty for normal runs.
var Debugf func(format string, v ...interface{}) = discard

func init() {
	if os.Getenv("MEP_DEBUG") != "" {
		Debugf = log.Printf
	}
}

func discard(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = discard
		return
	}
	Logf = f
}

// SetDebug enables or disables the per-frame debug logger.
func SetDebug(enabled bool) {
	if enabled {
		Debugf = Logf
		return
	}
	Debugf = discard
}
