package logger

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	FlagVerboseCount int  // -V, -VV, -VVV
	FlagQuiet        bool // --quiet/-q
	FlagSilent       bool // --silent/-s
	FlagJSON         bool // for cron/CI log collectors
)

// ConfigureLoggerFromFlags maps the persistent CLI flags onto a logger
// configuration. Logs go to stderr: stdout carries the check/mirror output
// that scripts parse.
func ConfigureLoggerFromFlags() {
	var out io.Writer = os.Stderr
	var level string
	switch {
	case FlagSilent:
		level = "error"
		out = io.Discard
	case FlagQuiet:
		level = "error"
	default:
		switch FlagVerboseCount {
		case 0:
			level = "info"
		default:
			level = "debug"
		}
	}

	Configure(Options{
		Level: level,
		JSON:  FlagJSON,
		Color: !FlagJSON && !color.NoColor,
		Out:   out,
	})
}
