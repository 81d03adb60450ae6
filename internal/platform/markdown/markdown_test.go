package markdown

import (
	"strings"
	"testing"
	"time"
)

type receiptHeader struct {
	SlotID      string    `yaml:"slot_id"`
	Rating      int       `yaml:"rating"`
	SubmittedAt time.Time `yaml:"submitted_at"`
}

func TestEncodeDecodeTypedHeader(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	note, err := Encode(receiptHeader{SlotID: "s-1", Rating: 5, SubmittedAt: at}, "# Receipt\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(note, "---\nslot_id: s-1\n") || !strings.Contains(note, "---\n\n# Receipt\n") {
		t.Fatalf("unexpected note layout: %q", note)
	}

	var got receiptHeader
	body, found, err := Decode(note, &got)
	if err != nil || !found {
		t.Fatalf("decode: found=%v err=%v", found, err)
	}
	if got.SlotID != "s-1" || got.Rating != 5 || !got.SubmittedAt.Equal(at) {
		t.Fatalf("unexpected header: %+v", got)
	}
	if body != "\n# Receipt\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestDecodeEdgeCases(t *testing.T) {
	t.Parallel()
	if _, _, err := Decode("---\nslot_id: x\n", nil); err == nil {
		t.Fatalf("expected unclosed header error")
	}
	body, found, err := Decode("plain ---\ntext", nil)
	if err != nil || found || body != "plain ---\ntext" {
		t.Fatalf("unexpected headerless result: %q %v %v", body, found, err)
	}
	body, found, err = Decode("---\r\nslot_id: x\r\n---\r\nbody", nil)
	if err != nil || !found || body != "body" {
		t.Fatalf("expected crlf fences to be accepted: %q %v %v", body, found, err)
	}
	var meta map[string]any
	if _, _, err := Decode("---\n[broken\n---\n", &meta); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestReplaceManagedBlock(t *testing.T) {
	t.Parallel()
	const start, end = "<!-- s -->", "<!-- e -->"
	first := ReplaceManagedBlock("intro\n", start, end, "a")
	if first != "intro\n\n<!-- s -->\na\n<!-- e -->\n" {
		t.Fatalf("unexpected append: %q", first)
	}
	second := ReplaceManagedBlock(first, start, end, "b")
	if strings.Count(second, start) != 1 || !strings.Contains(second, "\nb\n") || strings.Contains(second, "\na\n") {
		t.Fatalf("unexpected replace: %q", second)
	}
	if got := ReplaceManagedBlock("", start, end, "x"); got != "<!-- s -->\nx\n<!-- e -->\n" {
		t.Fatalf("unexpected empty-body block: %q", got)
	}
}
