// Package console renders the user-facing status lines of flash. Diagnostics
// go through zap on stderr; everything here is meant for a human watching the
// terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ClearSequence clears the screen and moves the cursor to the top-left.
const ClearSequence = "\x1b[2J\x1b[1;1H"

// Console writes styled lines to an output stream. Styling is only applied
// when the stream is a terminal.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool

	label   lipgloss.Style
	value   lipgloss.Style
	command lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

// New creates a Console writing to w.
func New(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	return &Console{
		out:     w,
		styled:  isTerminal(w),
		label:   r.NewStyle().Foreground(lipgloss.Color("12")),
		value:   r.NewStyle().Foreground(lipgloss.Color("10")),
		command: r.NewStyle().Foreground(lipgloss.Color("11")),
		good:    r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Writer returns the underlying stream.
func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) render(s lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return s.Render(text)
}

func (c *Console) println(parts ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range parts {
		if i > 0 {
			fmt.Fprint(c.out, " ")
		}
		fmt.Fprint(c.out, p)
	}
	fmt.Fprintln(c.out)
}

// Banner prints a headline.
func (c *Console) Banner(text string) {
	c.println(c.render(c.good, text))
}

// Field prints a "label value" line.
func (c *Console) Field(label, value string) {
	c.println(c.render(c.label, label), value)
}

// Running announces a command invocation.
func (c *Console) Running(command string) {
	c.println(c.render(c.label, "▶️ Running:"), c.render(c.command, command))
}

// Change announces a detected change.
func (c *Console) Change(path string) {
	c.println(c.render(c.label, "📝 Change detected:"), c.render(c.value, DisplayPath(path)))
}

// ExitStatus reports a command that exited unsuccessfully.
func (c *Console) ExitStatus(status string) {
	c.println(c.render(c.bad, "Command exited with code:"), status)
}

// Warn prints a warning line.
func (c *Console) Warn(text string) {
	c.println(c.render(c.warn, "Warning: "+text))
}

// Error prints an error line.
func (c *Console) Error(label string, err error) {
	c.println(c.render(c.bad, label), err.Error())
}

// Clear writes the clear-screen sequence.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, ClearSequence)
}

// Block prints a titled block of label/value rows framed by rules.
func (c *Console) Block(title string, rows [][2]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.render(c.good, "── "+title+" ──"))
	for _, row := range rows {
		fmt.Fprintln(c.out, c.render(c.label, row[0]), row[1])
	}
	fmt.Fprintln(c.out, c.render(c.good, "────────────────────────────"))
}

// DisplayPath shortens a path to its final element for display.
func DisplayPath(path string) string {
	if path == "" {
		return "unknown path"
	}
	base := filepath.Base(path)
	if base == string(filepath.Separator) {
		return path
	}
	return base
}
