package checker

import (
	"fmt"
	"io"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

func PrintVersion(w io.Writer) {
	fmt.Fprintln(w, "otawatch - factory image watcher and mirror")
	fmt.Fprintf(w, "  %-10s %s\n", "Version:", Version)
	fmt.Fprintf(w, "  %-10s %s\n", "Go Version:", GoVersion)
	fmt.Fprintf(w, "  %-10s %s\n", "Git Commit:", Commit)
	fmt.Fprintf(w, "  %-10s %s\n", "Built:", Date)
	fmt.Fprintf(w, "  %-10s %s/%s\n", "OS/Arch:", runtime.GOOS, runtime.GOARCH)
}
