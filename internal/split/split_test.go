package split

import (
	"fmt"
	"strings"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	spec, err := Parse("line_window:400")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Strategy != StrategyLineWindow || spec.Window != 400 {
		t.Errorf("unexpected spec %+v", spec)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{"", "line_window", "line_window:", "line_window:abc", "line_window:0", "line_window:-5", "byte_window:10"}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestWindows_ThousandLines(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}

	slices := Windows(sb.String(), Spec{Strategy: StrategyLineWindow, Window: 400})
	if len(slices) != 3 {
		t.Fatalf("expected 3 slices, got %d", len(slices))
	}

	wantRanges := [][2]int{{0, 400}, {400, 800}, {800, 1000}}
	for i, s := range slices {
		if s.Start != wantRanges[i][0] || s.End != wantRanges[i][1] {
			t.Errorf("slice %d: expected [%d,%d), got [%d,%d)", i, wantRanges[i][0], wantRanges[i][1], s.Start, s.End)
		}
		if s.Index != i || s.Total != 3 {
			t.Errorf("slice %d: unexpected index/total %d/%d", i, s.Index, s.Total)
		}
	}

	// Ranges are non-overlapping and contiguous.
	for i := 1; i < len(slices); i++ {
		if slices[i].Start != slices[i-1].End {
			t.Errorf("slice %d not contiguous with previous", i)
		}
	}

	if !strings.HasPrefix(slices[1].Text, "line 400") {
		t.Errorf("slice 1 should start at line 400, got %q", slices[1].Text[:20])
	}
}

func TestWindows_SingleWindow(t *testing.T) {
	slices := Windows("a\nb\nc\n", Spec{Strategy: StrategyLineWindow, Window: 10})
	if len(slices) != 1 {
		t.Fatalf("expected 1 slice, got %d", len(slices))
	}
	if slices[0].Start != 0 || slices[0].End != 3 {
		t.Errorf("expected [0,3), got [%d,%d)", slices[0].Start, slices[0].End)
	}
	if slices[0].Text != "a\nb\nc" {
		t.Errorf("unexpected text %q", slices[0].Text)
	}
}

func TestWindows_EmptyInput(t *testing.T) {
	slices := Windows("", Spec{Strategy: StrategyLineWindow, Window: 5})
	if len(slices) != 1 {
		t.Fatalf("expected 1 slice for empty input, got %d", len(slices))
	}
	if slices[0].Start != 0 || slices[0].End != 1 {
		t.Errorf("expected [0,1), got [%d,%d)", slices[0].Start, slices[0].End)
	}
}
