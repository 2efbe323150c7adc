package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funvibe/phasec/internal/config"
	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// UseColor decides whether output written to f should be coloured.
func UseColor(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Renderer prints diagnostics with an excerpt of the offending source line.
type Renderer struct {
	Color bool
	// Source returns the text of a file, or false when it is unavailable.
	Source func(file string) (string, bool)
}

// Render writes every diagnostic to w.
func (r *Renderer) Render(w io.Writer, errs []*DiagnosticError) {
	lines := make(map[string][]string)
	for _, err := range errs {
		r.renderOne(w, err, lines)
	}
}

func (r *Renderer) renderOne(w io.Writer, err *DiagnosticError, cache map[string][]string) {
	label := fmt.Sprintf("error[%s]", err.Code)
	if r.Color {
		label = ansiBold + ansiRed + label + ansiReset
	}
	fmt.Fprintf(w, "%s: %s\n", label, err.Message)
	fmt.Fprintf(w, "  --> %s\n", err.Span)

	src, ok := r.lineOf(err.Span.File, err.Span.Start.Line, cache)
	if !ok {
		return
	}
	gutter := fmt.Sprintf("%d", err.Span.Start.Line+1)
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(w, "%s |\n", pad)
	fmt.Fprintf(w, "%s | %s\n", gutter, src)

	width := 1
	if err.Span.End.Line == err.Span.Start.Line && err.Span.End.Col > err.Span.Start.Col {
		width = err.Span.End.Col - err.Span.Start.Col
	}
	col := err.Span.Start.Col
	if col > len(src) {
		col = len(src)
	}
	marker := strings.Repeat(" ", col) + strings.Repeat("^", width)
	if r.Color {
		marker = ansiRed + marker + ansiReset
		pad = ansiDim + pad + ansiReset
	}
	fmt.Fprintf(w, "%s | %s\n", pad, marker)
}

func (r *Renderer) lineOf(file string, line int, cache map[string][]string) (string, bool) {
	if r.Source == nil || file == "" {
		return "", false
	}
	lines, ok := cache[file]
	if !ok {
		text, found := r.Source(file)
		if !found {
			cache[file] = nil
			return "", false
		}
		lines = strings.Split(text, "\n")
		cache[file] = lines
	}
	if line < 0 || line >= len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line], "\r"), true
}

// FileSource reads sources from disk.
func FileSource(file string) (string, bool) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", false
	}
	return string(data), true
}
