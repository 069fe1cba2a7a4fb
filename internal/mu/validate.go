package mu

import (
	"fmt"
	"regexp"

	"github.com/rcliao/mimo/internal/snapshot"
)

// Violation is one field-level schema problem. All problems in a document
// are collected and reported together, never just the first.
type Violation struct {
	Code string `json:"code"`
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

// Violation codes.
const (
	CodeRequired  = "E_REQUIRED"
	CodeType      = "E_TYPE"
	CodeSchema    = "E_SCHEMA"
	CodeSnapshot  = "E_SNAPSHOT"
	CodePointer   = "E_POINTER"
	CodeLocator   = "E_LOCATOR"
	CodeTombstone = "E_TOMBSTONE"
)

// UnsupportedSchemaVersionError reports an unknown schema_version. Unknown
// versions fail; they are never silently coerced to a known one.
type UnsupportedSchemaVersionError struct {
	Version string
}

func (e *UnsupportedSchemaVersionError) Error() string {
	return fmt.Sprintf("unsupported schema_version %q", e.Version)
}

var hashRe = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// validators dispatches by schema_version. New versions are added here
// additively; existing entries never change behavior.
var validators = map[string]func(*checker){
	"1.0": checkV10,
	"1.1": checkV11,
}

// Validate checks a parsed document against its schema version. The check
// is pure: it never mutates doc and never touches disk. If expectVersion is
// non-empty the document must declare exactly that version. A non-nil error
// means the version itself is unusable; violations cover everything else.
func Validate(doc map[string]any, path, expectVersion string) ([]Violation, error) {
	version, _ := doc["schema_version"].(string)
	if expectVersion != "" && version != expectVersion {
		return nil, &UnsupportedSchemaVersionError{Version: version}
	}
	check, ok := validators[version]
	if !ok {
		return nil, &UnsupportedSchemaVersionError{Version: version}
	}

	c := &checker{path: path, doc: doc}
	check(c)
	return c.vs, nil
}

type checker struct {
	path string
	doc  map[string]any
	vs   []Violation
}

func (c *checker) add(code, msg string) {
	c.vs = append(c.vs, Violation{Code: code, Path: c.path, Msg: msg})
}

func (c *checker) requireAll(keys ...string) {
	for _, k := range keys {
		if _, ok := c.doc[k]; !ok {
			c.add(CodeRequired, "missing: "+k)
		}
	}
}

func checkV10(c *checker) {
	c.requireAll("schema_version", "id", "meta", "summary", "pointer", "snapshot_gz_b64")
	c.checkCommon()
}

func checkV11(c *checker) {
	c.requireAll("schema_version", "mu_id", "content_hash", "idempotency",
		"meta", "summary", "pointer", "snapshot_gz_b64")

	if v, ok := c.doc["mu_id"]; ok {
		if s, ok := v.(string); !ok || s == "" {
			c.add(CodeType, "mu_id must be a non-empty string")
		}
	}
	if v, ok := c.doc["content_hash"]; ok {
		if s, ok := v.(string); !ok || !hashRe.MatchString(s) {
			c.add(CodeType, "content_hash must match sha256:<64 hex>")
		}
	}
	if v, ok := c.doc["idempotency"]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			c.add(CodeType, "idempotency must be a mapping")
		} else if s, ok := m["mu_key"].(string); !ok || !hashRe.MatchString(s) {
			c.add(CodeType, "idempotency.mu_key must match sha256:<64 hex>")
		}
	}

	c.checkCommon()
	c.checkLinks()
	c.checkTombstone()
	c.checkContract()
}

// checkCommon covers the fields shared by every schema version.
func (c *checker) checkCommon() {
	if v, ok := c.doc["summary"]; ok {
		if s, ok := v.(string); !ok || s == "" {
			c.add(CodeType, "summary must be a non-empty string")
		}
	}
	if v, ok := c.doc["meta"]; ok {
		m, ok := v.(map[string]any)
		if !ok {
			c.add(CodeType, "meta must be a mapping")
		} else {
			c.checkMetaSnapshot(m)
		}
	}
	if v, ok := c.doc["pointer"]; ok {
		c.checkPointer(v)
	}
	if v, ok := c.doc["snapshot_gz_b64"]; ok {
		s, ok := v.(string)
		if !ok {
			c.add(CodeType, "snapshot_gz_b64 must be a string")
		} else if s != "" {
			if _, err := snapshot.Decode(s); err != nil {
				c.add(CodeSnapshot, "snapshot_gz_b64 not decodable: "+err.Error())
			}
		}
	}
}

func (c *checker) checkMetaSnapshot(meta map[string]any) {
	v, ok := meta["snapshot"]
	if !ok {
		return
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.add(CodeSnapshot, "meta.snapshot must be a mapping")
		return
	}
	if kind, ok := m["kind"].(string); !ok || !snapshot.ValidKinds[kind] {
		c.add(CodeSnapshot, fmt.Sprintf("meta.snapshot.kind invalid: %v", m["kind"]))
	}
	if codec, ok := m["codec"].(string); !ok || !snapshot.ValidCodecs[codec] {
		c.add(CodeSnapshot, fmt.Sprintf("meta.snapshot.codec invalid: %v", m["codec"]))
	}
}

func (c *checker) checkPointer(v any) {
	p, ok := v.(map[string]any)
	if !ok {
		c.add(CodePointer, "pointer must be a mapping")
		return
	}
	if s, ok := p["type"].(string); !ok || s == "" {
		c.add(CodePointer, "pointer.type must be a non-empty string")
	}
	if s, ok := p["uri"].(string); !ok || s == "" {
		c.add(CodePointer, "pointer.uri must be a non-empty string")
	}
	if s, ok := p["sha256"].(string); !ok || !hashRe.MatchString(s) {
		c.add(CodePointer, "pointer.sha256 must match sha256:<64 hex>")
	}

	lv, ok := p["locator"]
	if !ok {
		c.add(CodePointer, "pointer.locator is required")
		return
	}
	lm, ok := lv.(map[string]any)
	if !ok {
		c.add(CodePointer, "pointer.locator must be a mapping")
		return
	}
	loc, err := locatorFromDoc(lm)
	if err != nil {
		c.add(CodeLocator, err.Error())
		return
	}
	if err := loc.Validate(); err != nil {
		c.add(CodeLocator, err.Error())
	}
}

func (c *checker) checkLinks() {
	v, ok := c.doc["links"]
	if !ok {
		return // optional; absence is never an error
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.add(CodeType, "links must be a mapping")
		return
	}
	cv, ok := m["corrects"]
	if !ok {
		return
	}
	seq, ok := cv.([]any)
	if !ok {
		c.add(CodeType, "links.corrects must be a sequence")
		return
	}
	for i, e := range seq {
		if s, ok := e.(string); !ok || s == "" {
			c.add(CodeType, fmt.Sprintf("links.corrects[%d] must be a non-empty string", i))
		}
	}
}

func (c *checker) checkTombstone() {
	v, ok := c.doc["tombstone"]
	if !ok {
		return // optional; absence is never an error
	}
	m, ok := v.(map[string]any)
	if !ok {
		c.add(CodeTombstone, "tombstone must be a mapping")
		return
	}
	for _, k := range []string{"target_mu_id", "created_at", "actor", "reason", "scope"} {
		if s, ok := m[k].(string); !ok || (s == "" && k != "reason") {
			c.add(CodeTombstone, "tombstone."+k+" must be a string")
		}
	}
	if _, ok := m["retain_raw"].(bool); !ok {
		c.add(CodeTombstone, "tombstone.retain_raw must be a boolean")
	}
	if s, ok := m["scope"].(string); ok && !ValidTombstoneScopes[s] {
		c.add(CodeTombstone, fmt.Sprintf("tombstone.scope invalid: %q", s))
	}
}

func locatorFromDoc(m map[string]any) (Locator, error) {
	kind, _ := m["kind"].(string)
	if !ValidLocatorKinds[kind] {
		return Locator{}, fmt.Errorf("locator.kind invalid: %v", m["kind"])
	}
	loc := Locator{Kind: kind}
	loc.Start = numField(m, "start")
	loc.End = numField(m, "end")
	loc.X0 = numField(m, "x0")
	loc.Y0 = numField(m, "y0")
	loc.X1 = numField(m, "x1")
	loc.Y1 = numField(m, "y1")
	return loc, nil
}

func numField(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case int:
		return fptr(float64(x))
	case int64:
		return fptr(float64(x))
	case float64:
		return fptr(x)
	}
	return nil
}
