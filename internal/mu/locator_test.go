package mu

import "testing"

func TestNewLineRange(t *testing.T) {
	loc, err := NewLineRange(0, 400)
	if err != nil {
		t.Fatalf("new line range: %v", err)
	}
	if loc.Kind != KindLineRange {
		t.Errorf("expected kind line_range, got %s", loc.Kind)
	}
	start, end := loc.Range()
	if start != 0 || end != 400 {
		t.Errorf("expected [0,400), got [%d,%d)", start, end)
	}
	if err := loc.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestIndexRanges_RejectInvalid(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 5},
		{"negative end", 0, -2},
		{"inverted", 10, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLineRange(tc.start, tc.end); err == nil {
				t.Error("expected error for line_range")
			}
			if _, err := NewByteRange(tc.start, tc.end); err == nil {
				t.Error("expected error for byte_range")
			}
			if _, err := NewPageRange(tc.start, tc.end); err == nil {
				t.Error("expected error for page_range")
			}
		})
	}
}

func TestIndexRange_EmptyRangeAllowed(t *testing.T) {
	if _, err := NewLineRange(5, 5); err != nil {
		t.Errorf("start == end should be valid: %v", err)
	}
}

func TestNewTimeRange(t *testing.T) {
	loc, err := NewTimeRange(1.5, 12.25)
	if err != nil {
		t.Fatalf("new time range: %v", err)
	}
	if err := loc.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}

	if _, err := NewTimeRange(5, 2); err == nil {
		t.Error("expected error for inverted time range")
	}
	if _, err := NewTimeRange(-1, 2); err == nil {
		t.Error("expected error for negative time range")
	}
}

func TestNewBBox(t *testing.T) {
	loc, err := NewBBox(0, 0, 100, 50)
	if err != nil {
		t.Fatalf("new bbox: %v", err)
	}
	if err := loc.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}

	degenerate := [][4]float64{
		{0, 0, 0, 50},   // zero width
		{0, 0, 100, 0},  // zero height
		{10, 10, 5, 20}, // inverted x
	}
	for _, d := range degenerate {
		if _, err := NewBBox(d[0], d[1], d[2], d[3]); err == nil {
			t.Errorf("expected error for bbox %v", d)
		}
	}
}

func TestLocator_ValidateRejectsFractionalLineBounds(t *testing.T) {
	loc := Locator{Kind: KindLineRange, Start: fptr(1.5), End: fptr(3)}
	if err := loc.Validate(); err == nil {
		t.Error("expected error for fractional line bound")
	}
}

func TestLocator_ValidateUnknownKind(t *testing.T) {
	loc := Locator{Kind: "word_range", Start: fptr(0), End: fptr(1)}
	if err := loc.Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
}
