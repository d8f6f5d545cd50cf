// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon. Write errors are
// intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a section header with an underline.
func (w *Writer) Header(title string) {
	_, _ = fmt.Fprintf(w.out, "\n%s\n%s\n", title, strings.Repeat("─", len([]rune(title))))
}

// KeyValue prints an aligned "key: value" line. width is the key column
// width in runes; 0 prints unaligned.
func (w *Writer) KeyValue(key string, value any, width int) {
	pad := max(width-len([]rune(key)), 0)
	_, _ = fmt.Fprintf(w.out, "  %s:%s %v\n", key, strings.Repeat(" ", pad), value)
}

// Result prints one numbered search result, with an optional indented
// detail line under it.
func (w *Writer) Result(rank int, key string, detail string) {
	_, _ = fmt.Fprintf(w.out, "%2d. %s\n", rank, key)
	if detail != "" {
		_, _ = fmt.Fprintf(w.out, "      %s\n", detail)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
