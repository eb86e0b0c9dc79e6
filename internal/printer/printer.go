package printer

import (
	"github.com/fatih/color"
)

type SprintfFunc func(format string, a ...interface{}) string

// ColorPrinter groups the colored formatters shared by the logger and the
// console notifier.
type ColorPrinter struct {
	Success SprintfFunc
	Error   SprintfFunc
	Warning SprintfFunc
	Info    SprintfFunc
	Debug   SprintfFunc
	Accent  SprintfFunc
}

func NewColorPrinter() *ColorPrinter {
	return &ColorPrinter{
		Success: color.New(color.FgGreen).SprintfFunc(),
		Error:   color.New(color.FgRed).SprintfFunc(),
		Warning: color.New(color.FgYellow).SprintfFunc(),
		Info:    color.New(color.FgBlue).SprintfFunc(),
		Debug:   color.New(color.FgCyan).SprintfFunc(),
		Accent:  color.New(color.FgMagenta, color.Bold).SprintfFunc(),
	}
}
