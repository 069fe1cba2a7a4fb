package snapshot

import (
	"strings"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	text := "first line\nsecond line with ünïcode ✓\n"
	payload, desc, err := Encode(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if desc.Kind != "text" || desc.Codec != "gz+b64" {
		t.Errorf("unexpected descriptor %+v", desc)
	}
	if desc.SizeBytes != len(text) {
		t.Errorf("expected size_bytes %d, got %d", len(text), desc.SizeBytes)
	}

	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != text {
		t.Errorf("round trip mismatch: %q vs %q", got, text)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	text := strings.Repeat("a deterministic line of snapshot text\n", 100)
	first, _, err := Encode(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 10; i++ {
		payload, _, err := Encode(text)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if payload != first {
			t.Fatal("identical text must encode to identical payload bytes")
		}
	}
}

func TestDecode_RejectsGarbage(t *testing.T) {
	if _, err := Decode("not base64 at all!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	// Valid base64 of bytes that are not a gzip stream.
	if _, err := Decode("bm90IGd6aXA="); err == nil {
		t.Error("expected error for non-gzip payload")
	}
}
