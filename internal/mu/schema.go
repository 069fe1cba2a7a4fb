package mu

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rcliao/mimo/contracts"
	"github.com/rcliao/mimo/internal/canonical"
)

var (
	schemaOnce sync.Once
	muV11      *jsonschema.Schema
	schemaErr  error
)

func compiledV11() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		resources := map[string][]byte{
			"pointer_locator.v0_1.schema.json": contracts.PointerLocatorV01,
			"snapshot.v1_1.schema.json":        contracts.SnapshotV11,
			"mu.v1_1.schema.json":              contracts.MUV11,
		}
		for name, data := range resources {
			if err := c.AddResource(name, bytes.NewReader(data)); err != nil {
				schemaErr = err
				return
			}
		}
		muV11, schemaErr = c.Compile("mu.v1_1.schema.json")
	})
	return muV11, schemaErr
}

// checkContract validates the document against the embedded v1.1 JSON
// Schema contract, on top of the hand-rolled structural checks.
func (c *checker) checkContract() {
	sch, err := compiledV11()
	if err != nil {
		c.add(CodeSchema, "contract schema unavailable: "+err.Error())
		return
	}

	// Normalize YAML-sourced values through canonical JSON so the schema
	// library sees plain JSON types.
	b, err := canonical.Marshal(c.doc)
	if err != nil {
		var encErr *canonical.EncodingError
		if errors.As(err, &encErr) {
			c.add(CodeSchema, "document not JSON-compatible: "+encErr.Msg)
		} else {
			c.add(CodeSchema, "document not JSON-compatible: "+err.Error())
		}
		return
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		c.add(CodeSchema, "document not JSON-compatible: "+err.Error())
		return
	}

	if err := sch.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, cause := range leafCauses(ve) {
				c.add(CodeSchema, cause.InstanceLocation+": "+cause.Message)
			}
		} else {
			c.add(CodeSchema, err.Error())
		}
	}
}

// leafCauses flattens a validation error tree to its most specific causes.
func leafCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}
