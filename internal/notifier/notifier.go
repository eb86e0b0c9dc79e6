package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/printer"
	"github.com/MrSnakeDoc/otawatch/internal/release"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
)

const (
	borderColor = "\033[38;5;39m"
	resetColor  = "\033[0m"
	padding     = 2
)

// Event is emitted by the resolver when a codename's version differs from
// the stored one. Previous is empty on first sight.
type Event struct {
	Info     release.Info
	Previous string
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, ev Event) error

func (f Func) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Console draws a boxed announcement, the same way the CLI announces its
// own updates.
type Console struct {
	Out io.Writer
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{Out: out}
}

func (c *Console) Notify(_ context.Context, ev Event) error {
	p := printer.NewColorPrinter()

	previous := ev.Previous
	if previous == "" {
		previous = "none"
	}

	lines := []string{
		p.Success("New factory image for %s!", ev.Info.Codename),
		fmt.Sprintf("%s %s -> %s", p.Info("Version:"), p.Error(previous), p.Success(ev.Info.Version)),
		fmt.Sprintf("%s %s", p.Info("Tag:"), p.Accent(ev.Info.ReleaseTag)),
		fmt.Sprintf("%s%s%s", p.Warning("Run "), p.Success("otawatch mirror -n %s", ev.Info.Codename), p.Warning(" to fetch it.")),
	}

	return drawBox(c.Out, lines)
}

func drawBox(w io.Writer, lines []string) error {
	maxWidth := utils.GetMaxWidth(lines) + padding*2
	var b strings.Builder

	b.WriteString(borderColor + "╭" + strings.Repeat("─", maxWidth) + "╮" + resetColor + "\n")
	side := borderColor + "│" + resetColor
	for _, line := range lines {
		left := (maxWidth - utils.VisibleWidth(line)) / 2
		right := maxWidth - utils.VisibleWidth(line) - left
		fmt.Fprintf(&b, "%s%s%s%s%s\n", side, strings.Repeat(" ", left), line, strings.Repeat(" ", right), side)
	}
	b.WriteString(borderColor + "╰" + strings.Repeat("─", maxWidth) + "╯" + resetColor + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
