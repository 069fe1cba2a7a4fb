// Package contracts embeds the machine-readable schema contracts. The JSON
// Schema files here are the binding compatibility contract for the .mimo
// format: any format change bumps schema_version and the matching file.
package contracts

import _ "embed"

// MUV11 is the JSON Schema for MU documents at schema_version 1.1.
//
//go:embed mu.v1_1.schema.json
var MUV11 []byte

// PointerLocatorV01 is the JSON Schema for the pointer+locator shape.
//
//go:embed pointer_locator.v0_1.schema.json
var PointerLocatorV01 []byte

// SnapshotV11 is the JSON Schema for the snapshot descriptor.
//
//go:embed snapshot.v1_1.schema.json
var SnapshotV11 []byte
