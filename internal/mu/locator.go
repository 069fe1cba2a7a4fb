package mu

import "fmt"

// Locator kinds.
const (
	KindLineRange = "line_range"
	KindByteRange = "byte_range"
	KindPageRange = "page_range"
	KindTimeRange = "time_range"
	KindBBox      = "bbox"
)

// ValidLocatorKinds are the recognized locator kinds.
var ValidLocatorKinds = map[string]bool{
	KindLineRange: true,
	KindByteRange: true,
	KindPageRange: true,
	KindTimeRange: true,
	KindBBox:      true,
}

// Locator pinpoints a sub-region of evidence. Range kinds use Start/End
// (0-based, half-open for index ranges; seconds for time_range), bbox uses
// the four corner coordinates. Unused fields stay nil so each kind only
// serializes its own coordinates.
type Locator struct {
	Kind  string   `yaml:"kind" json:"kind"`
	Start *float64 `yaml:"start,omitempty" json:"start,omitempty"`
	End   *float64 `yaml:"end,omitempty" json:"end,omitempty"`
	X0    *float64 `yaml:"x0,omitempty" json:"x0,omitempty"`
	Y0    *float64 `yaml:"y0,omitempty" json:"y0,omitempty"`
	X1    *float64 `yaml:"x1,omitempty" json:"x1,omitempty"`
	Y1    *float64 `yaml:"y1,omitempty" json:"y1,omitempty"`
}

func fptr(v float64) *float64 { return &v }

// NewLineRange builds a line_range locator over [start, end).
func NewLineRange(start, end int) (Locator, error) {
	return newIndexRange(KindLineRange, start, end)
}

// NewByteRange builds a byte_range locator over [start, end).
func NewByteRange(start, end int) (Locator, error) {
	return newIndexRange(KindByteRange, start, end)
}

// NewPageRange builds a page_range locator over [start, end).
func NewPageRange(start, end int) (Locator, error) {
	return newIndexRange(KindPageRange, start, end)
}

func newIndexRange(kind string, start, end int) (Locator, error) {
	if start < 0 || end < 0 {
		return Locator{}, fmt.Errorf("%s: negative bound (start=%d end=%d)", kind, start, end)
	}
	if start > end {
		return Locator{}, fmt.Errorf("%s: start %d > end %d", kind, start, end)
	}
	return Locator{Kind: kind, Start: fptr(float64(start)), End: fptr(float64(end))}, nil
}

// NewTimeRange builds a time_range locator in seconds.
func NewTimeRange(start, end float64) (Locator, error) {
	if start < 0 || end < 0 {
		return Locator{}, fmt.Errorf("time_range: negative bound (start=%v end=%v)", start, end)
	}
	if start > end {
		return Locator{}, fmt.Errorf("time_range: start %v > end %v", start, end)
	}
	return Locator{Kind: KindTimeRange, Start: fptr(start), End: fptr(end)}, nil
}

// NewBBox builds a bbox locator. The rectangle must be non-degenerate.
func NewBBox(x0, y0, x1, y1 float64) (Locator, error) {
	if x0 >= x1 || y0 >= y1 {
		return Locator{}, fmt.Errorf("bbox: degenerate rectangle (%v,%v)-(%v,%v)", x0, y0, x1, y1)
	}
	return Locator{Kind: KindBBox, X0: fptr(x0), Y0: fptr(y0), X1: fptr(x1), Y1: fptr(y1)}, nil
}

// Validate checks the kind-specific invariants.
func (l Locator) Validate() error {
	switch l.Kind {
	case KindLineRange, KindByteRange, KindPageRange:
		if l.Start == nil || l.End == nil {
			return fmt.Errorf("%s: missing start/end", l.Kind)
		}
		if *l.Start != float64(int(*l.Start)) || *l.End != float64(int(*l.End)) {
			return fmt.Errorf("%s: bounds must be integers (start=%v end=%v)", l.Kind, *l.Start, *l.End)
		}
		if *l.Start < 0 || *l.End < 0 || *l.Start > *l.End {
			return fmt.Errorf("%s: invalid range start=%v end=%v", l.Kind, *l.Start, *l.End)
		}
	case KindTimeRange:
		if l.Start == nil || l.End == nil {
			return fmt.Errorf("time_range: missing start/end")
		}
		if *l.Start < 0 || *l.End < 0 || *l.Start > *l.End {
			return fmt.Errorf("time_range: invalid range start=%v end=%v", *l.Start, *l.End)
		}
	case KindBBox:
		if l.X0 == nil || l.Y0 == nil || l.X1 == nil || l.Y1 == nil {
			return fmt.Errorf("bbox: missing coordinates")
		}
		if *l.X0 >= *l.X1 || *l.Y0 >= *l.Y1 {
			return fmt.Errorf("bbox: degenerate rectangle (%v,%v)-(%v,%v)", *l.X0, *l.Y0, *l.X1, *l.Y1)
		}
	default:
		return fmt.Errorf("unknown locator kind %q", l.Kind)
	}
	return nil
}

// Range returns the integer bounds of an index-range locator.
func (l Locator) Range() (start, end int) {
	if l.Start != nil {
		start = int(*l.Start)
	}
	if l.End != nil {
		end = int(*l.End)
	}
	return start, end
}

// Pointer identifies source evidence and its content hash. SHA256 is the
// hash of the raw referenced bytes, so extraction can detect drift.
type Pointer struct {
	Type    string  `yaml:"type" json:"type"`
	URI     string  `yaml:"uri" json:"uri"`
	SHA256  string  `yaml:"sha256" json:"sha256"`
	Locator Locator `yaml:"locator" json:"locator"`
}

// Validate checks the pointer shape and its locator.
func (p Pointer) Validate() error {
	if p.Type == "" {
		return fmt.Errorf("pointer: missing type")
	}
	if p.URI == "" {
		return fmt.Errorf("pointer: missing uri")
	}
	if !hashRe.MatchString(p.SHA256) {
		return fmt.Errorf("pointer: invalid sha256 %q", p.SHA256)
	}
	if err := p.Locator.Validate(); err != nil {
		return fmt.Errorf("pointer: %w", err)
	}
	return nil
}
