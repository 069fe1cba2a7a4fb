package extract

import (
	"fmt"
	"os"

	"github.com/rcliao/mimo/internal/mu"
)

// Item is one loaded MU with its resolution flags.
type Item struct {
	Path string
	MU   *mu.MU

	TombstoneRecord bool // this MU carries a tombstone block
	Deleted         bool // this MU is the target of a tombstone
	Corrected       bool // this MU is superseded via links.corrects
	Superseded      bool // a newer correction of the same ancestor exists

	Snippet string // evidence slice, filled during extraction when resolvable
}

// Load reads and validates every MU under path. Invalid documents become
// per-item errors; valid ones are returned in file order.
func Load(path string) ([]*Item, []ItemError, error) {
	files, err := mu.ListFiles(path)
	if err != nil {
		return nil, nil, err
	}

	var items []*Item
	var errs []ItemError
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, ItemError{Path: f, Msg: err.Error()})
			continue
		}
		doc, err := mu.ParseDoc(data)
		if err != nil {
			errs = append(errs, ItemError{Path: f, Msg: err.Error()})
			continue
		}
		vs, err := mu.Validate(doc, f, "")
		if err != nil {
			errs = append(errs, ItemError{Path: f, Msg: err.Error()})
			continue
		}
		if len(vs) > 0 {
			for _, v := range vs {
				errs = append(errs, ItemError{Path: f, Msg: v.Code + ": " + v.Msg})
			}
			continue
		}
		m, err := mu.Decode(data)
		if err != nil {
			errs = append(errs, ItemError{Path: f, Msg: err.Error()})
			continue
		}
		items = append(items, &Item{Path: f, MU: m, TombstoneRecord: m.Tombstone != nil})
	}
	return items, errs, nil
}

// Resolve computes the "normal mode" view: tombstoned MUs and superseded
// correction ancestors drop out; for rival corrections of the same
// ancestor the most recently created MU wins. The input is not modified
// beyond flagging; resolution walks the links lazily instead of building a
// mutable graph.
func Resolve(items []*Item) []*Item {
	byID := make(map[string]*Item, len(items))
	for _, it := range items {
		byID[id(it.MU)] = it
	}

	// Tombstones delete their target. The tombstone record itself never
	// joins the reconstruction view.
	for _, it := range items {
		ts := it.MU.Tombstone
		if ts == nil {
			continue
		}
		if target, ok := byID[ts.TargetMUID]; ok && ts.Scope == "all" {
			target.Deleted = true
		}
	}

	// Everything referenced by links.corrects is superseded.
	correctors := make(map[string][]*Item) // ancestor id -> correcting MUs
	for _, it := range items {
		if it.MU.Links == nil {
			continue
		}
		for _, ancestor := range it.MU.Links.Corrects {
			if old, ok := byID[ancestor]; ok {
				old.Corrected = true
			}
			correctors[ancestor] = append(correctors[ancestor], it)
		}
	}

	// Rival corrections of one ancestor: newest creation time wins.
	for _, rivals := range correctors {
		if len(rivals) < 2 {
			continue
		}
		winner := rivals[0]
		for _, r := range rivals[1:] {
			if newer(r, winner) {
				winner = r
			}
		}
		for _, r := range rivals {
			if r != winner {
				r.Superseded = true
			}
		}
	}

	var view []*Item
	for _, it := range items {
		if it.TombstoneRecord || it.Deleted || it.Corrected || it.Superseded {
			continue
		}
		view = append(view, it)
	}
	return view
}

// RawView returns every item, including tombstone records and deleted
// targets, still excluding nothing. Flags set by Resolve remain visible.
func RawView(items []*Item) []*Item {
	out := make([]*Item, len(items))
	copy(out, items)
	return out
}

func newer(a, b *Item) bool {
	if a.MU.Meta.Time != b.MU.Meta.Time {
		return a.MU.Meta.Time > b.MU.Meta.Time
	}
	return a.Path > b.Path
}

func id(m *mu.MU) string {
	if m.MUID != "" {
		return m.MUID
	}
	// v1.0 documents carry their identifier under "id"; Decode maps only
	// mu_id, so fall back to a synthetic identity.
	return fmt.Sprintf("%s#%d", m.Meta.GroupID, m.Meta.Order)
}
