package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shiftbuddy/internal/modules/journey/domain"
	journeyout "shiftbuddy/internal/modules/journey/port/out"
	"shiftbuddy/internal/platform/markdown"
	"shiftbuddy/internal/platform/slug"
)

const (
	trackBlockStart = "<!-- shiftbuddy:track:start -->"
	trackBlockEnd   = "<!-- shiftbuddy:track:end -->"
)

// VaultReceiptStore writes one markdown receipt per slot under <dataDir>/receipts.
// Resubmitting feedback for a slot rewrites the header and the track block
// but keeps any notes the carrier added by hand.
type VaultReceiptStore struct {
	dataDir string
}

func NewVaultReceiptStore(dataDir string) journeyout.ReceiptStore {
	return &VaultReceiptStore{dataDir: dataDir}
}

// receiptHeader is the YAML frontmatter of a receipt note.
type receiptHeader struct {
	SchemaVersion    int       `yaml:"schema_version"`
	SlotID           string    `yaml:"slot_id"`
	Rating           int       `yaml:"rating"`
	Comment          string    `yaml:"comment,omitempty"`
	CompletedSteps   int       `yaml:"completed_steps"`
	SubmittedAt      time.Time `yaml:"submitted_at"`
	FirstSubmittedAt time.Time `yaml:"first_submitted_at"`
}

func (s *VaultReceiptStore) Save(_ context.Context, receipt journeyout.Receipt) (string, error) {
	if receipt.SlotID == "" {
		return "", domain.ErrSlotRequired
	}
	at := receipt.SubmittedAt.UTC()
	dir := filepath.Join(s.dataDir, "receipts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}
	path := filepath.Join(dir, slug.Make(receipt.SlotID)+".md")

	header := receiptHeader{
		SchemaVersion:    domain.SchemaVersion,
		SlotID:           receipt.SlotID,
		Rating:           receipt.Rating,
		Comment:          strings.TrimSpace(receipt.Comment),
		CompletedSteps:   domain.CountCompleted(receipt.Entries),
		SubmittedAt:      at,
		FirstSubmittedAt: at,
	}
	body := fmt.Sprintf("# Slot %s\n\n## Feedback\n\n%s\n", receipt.SlotID, header.Comment)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		var previous receiptHeader
		if oldBody, found, decodeErr := markdown.Decode(string(existing), &previous); decodeErr == nil {
			body = oldBody
			if found && !previous.FirstSubmittedAt.IsZero() {
				header.FirstSubmittedAt = previous.FirstSubmittedAt
			}
		}
	case !os.IsNotExist(err):
		return "", fmt.Errorf("read receipt: %w", err)
	}
	body = markdown.ReplaceManagedBlock(body, trackBlockStart, trackBlockEnd, renderTrack(receipt.Entries))

	rendered, err := markdown.Encode(header, body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}

func renderTrack(entries []domain.TrackEntry) string {
	if len(entries) == 0 {
		return "- (no track entries)"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		mark := " "
		if e.Completed() {
			mark = "x"
		}
		line := fmt.Sprintf("- [%s] %s (%s)", mark, e.Step, e.Status)
		if !e.UpdatedAt.IsZero() {
			line += " " + e.UpdatedAt.UTC().Format("2006-01-02 15:04")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
