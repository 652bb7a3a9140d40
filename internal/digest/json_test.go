package digest

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSON_Manifest(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, sampleInput()); err != nil {
		t.Fatalf("format: %v", err)
	}

	var out jsonDigest
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}

	if out.Meta.Authors != 3 || out.Meta.Posts != 2 {
		t.Errorf("meta = %+v", out.Meta)
	}
	if out.Meta.GeneratedAt != "2026-06-21T08:00:00Z" {
		t.Errorf("generated_at = %q", out.Meta.GeneratedAt)
	}
	if len(out.Batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(out.Batches))
	}

	b := out.Batches[0]
	if b.Title != "Story - 1-2" || b.Filename != "Story - 1-2.azw3" || b.ReadCounted != 1 {
		t.Errorf("batch = %+v", b)
	}
	if len(b.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(b.Posts))
	}
	p := b.Posts[1]
	if p.ID != "p1" || p.Title != "[OC] Story 1" || p.CanonicalTitle != "Story 1" {
		t.Errorf("post = %+v", p)
	}
	if !p.Read || p.ArchiveEligible {
		t.Errorf("flags read=%v eligible=%v", p.Read, p.ArchiveEligible)
	}
	if p.CreatedAt != "2026-06-20T19:00:00Z" {
		t.Errorf("created_at = %q", p.CreatedAt)
	}

	if out.Batches[2].Skipped != "access denied" {
		t.Errorf("skipped = %q", out.Batches[2].Skipped)
	}
	if out.Batches[1].Posts == nil {
		t.Error("empty batch should encode posts as []")
	}
}

func TestJSON_EmptyBatchesArray(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, Input{}); err != nil {
		t.Fatalf("format: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if string(raw["batches"]) != "[]" {
		t.Errorf("batches = %s, want []", raw["batches"])
	}
}
