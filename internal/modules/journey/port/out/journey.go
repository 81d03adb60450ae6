package out

import (
	"context"
	"time"

	"shiftbuddy/internal/modules/journey/domain"
)

// TrackUpdate is the body posted to the slot-track API to confirm a step.
type TrackUpdate struct {
	Step    string `json:"step"`
	Status  string `json:"status"`
	Note    string `json:"note,omitempty"`
	Rating  int    `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// SlotTracker is the remote source of truth for a slot's track.
type SlotTracker interface {
	FetchTrack(ctx context.Context, slotID string) ([]domain.TrackEntry, error)
	UpdateTrack(ctx context.Context, slotID string, update TrackUpdate) error
}

// JourneyStore persists the active journey between process runs.
type JourneyStore interface {
	SaveActive(ctx context.Context, state domain.JourneyState) error
	LoadActive(ctx context.Context) (domain.JourneyState, error)
	ClearActive(ctx context.Context) error
}

// TrackRecord is a fetched track entry as kept in local history.
type TrackRecord struct {
	SlotID    string
	Position  int
	Entry     domain.TrackEntry
	FetchedAt time.Time
}

type TrackProjector interface {
	ReplaceTrack(ctx context.Context, slotID string, fetchedAt time.Time, entries []domain.TrackEntry) error
	ListTrack(ctx context.Context, slotID string, limit int) ([]TrackRecord, error)
}

// Receipt is the local record written once feedback is submitted.
type Receipt struct {
	SlotID      string
	Rating      int
	Comment     string
	SubmittedAt time.Time
	Entries     []domain.TrackEntry
}

type ReceiptStore interface {
	Save(ctx context.Context, receipt Receipt) (string, error)
}

// Recorder observes refresh outcomes. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveRefresh(outcome string, duration time.Duration)
	SetStep(slotID string, step int)
}
