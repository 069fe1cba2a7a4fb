// Package snapshot implements the gz+b64 payload codec for MU snapshots.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Snapshot kinds and codecs recognized by the schema contract.
var (
	ValidKinds  = map[string]bool{"text": true, "web": true, "audio": true, "image": true, "other": true}
	ValidCodecs = map[string]bool{"plain": true, "gz+b64": true}
)

// compressionLevel is pinned so re-encoding identical text yields identical
// bytes, which content_hash depends on. Changing it is a format change and
// requires a schema_version bump.
const compressionLevel = 6

// Descriptor declares how a snapshot_gz_b64 payload decodes. It is stored
// under meta.snapshot in the MU document.
type Descriptor struct {
	Kind      string `yaml:"kind" json:"kind"`
	Codec     string `yaml:"codec" json:"codec"`
	SizeBytes int    `yaml:"size_bytes" json:"size_bytes"`
}

// Encode compresses text and base64-encodes it, returning the payload
// string and its descriptor.
func Encode(text string) (string, Descriptor, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, compressionLevel)
	if err != nil {
		return "", Descriptor{}, fmt.Errorf("gzip writer: %w", err)
	}
	raw := []byte(text)
	if _, err := zw.Write(raw); err != nil {
		return "", Descriptor{}, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", Descriptor{}, fmt.Errorf("compress snapshot: %w", err)
	}

	desc := Descriptor{Kind: "text", Codec: "gz+b64", SizeBytes: len(raw)}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), desc, nil
}

// Decode reverses Encode: base64-decode then gunzip back to text.
func Decode(payload string) (string, error) {
	comp, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode snapshot base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(comp))
	if err != nil {
		return "", fmt.Errorf("decode snapshot gzip: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("decompress snapshot: %w", err)
	}
	return string(raw), nil
}
