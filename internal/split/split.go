// Package split slices raw input into windows for packing.
package split

import (
	"fmt"
	"strconv"
	"strings"
)

// StrategyLineWindow is the only split strategy currently supported.
const StrategyLineWindow = "line_window"

// Spec is a parsed split policy, e.g. line_window:400.
type Spec struct {
	Strategy string
	Window   int
}

// String renders the spec back to its flag form.
func (s Spec) String() string {
	return fmt.Sprintf("%s:%d", s.Strategy, s.Window)
}

// Parse parses a split policy string of the form "line_window:<n>".
func Parse(s string) (Spec, error) {
	if s == "" {
		return Spec{}, fmt.Errorf("split is required (e.g. line_window:400)")
	}
	strategy, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Spec{}, fmt.Errorf("invalid split %q, expected line_window:<n>", s)
	}
	strategy = strings.TrimSpace(strategy)
	if strategy != StrategyLineWindow {
		return Spec{}, fmt.Errorf("unsupported split strategy %q", strategy)
	}
	window, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return Spec{}, fmt.Errorf("invalid split window %q", rest)
	}
	if window <= 0 {
		return Spec{}, fmt.Errorf("split window must be > 0, got %d", window)
	}
	return Spec{Strategy: strategy, Window: window}, nil
}

// Slice is one window of the input with its 0-based half-open line range.
type Slice struct {
	Text  string
	Start int // first line, inclusive
	End   int // past-the-end line
	Index int // 0-based slice index
	Total int // slice count for the source
}

// Windows cuts text into consecutive non-overlapping line windows. A file
// that fits in one window yields a single slice; empty input yields one
// empty slice so the source still produces an MU.
func Windows(text string, spec Spec) []Slice {
	lines := strings.Split(text, "\n")
	// A trailing newline is a line terminator, not an extra empty line.
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	total := (len(lines) + spec.Window - 1) / spec.Window
	if total < 1 {
		total = 1
	}

	slices := make([]Slice, 0, total)
	for i := 0; i < total; i++ {
		start := i * spec.Window
		end := start + spec.Window
		if end > len(lines) {
			end = len(lines)
		}
		slices = append(slices, Slice{
			Text:  strings.Join(lines[start:end], "\n"),
			Start: start,
			End:   end,
			Index: i,
			Total: total,
		})
	}
	return slices
}
