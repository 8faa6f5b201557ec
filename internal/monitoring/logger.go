// Package monitoring holds the diagnostic logger shared by the analysis
// pipeline, renderers and server.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger, which is how -quiet mutes a run.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Step logs the start of a named pipeline step and returns a func that logs
// its completion with the elapsed time. Typical use:
//
//	defer monitoring.Step("clean")()
func Step(name string) func() {
	start := time.Now()
	Logf("[%s] started", name)
	return func() {
		Logf("[%s] done in %s", name, time.Since(start).Round(time.Millisecond))
	}
}
