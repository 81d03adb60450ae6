package domain

import (
	"errors"
	"fmt"
	"time"
)

const SchemaVersion = 1

// StatusCompleted is the only track status that counts toward progress.
const StatusCompleted = "completed"

var (
	ErrInvalidStep     = errors.New("invalid journey step")
	ErrStepOutOfOrder  = errors.New("journey step out of order")
	ErrJourneyFinished = errors.New("journey already finished")
	ErrUnknownFlag     = errors.New("unknown journey flag")
	ErrSlotRequired    = errors.New("slot id is required")
)

// TrackEntry is one record of the remote slot track.
type TrackEntry struct {
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e TrackEntry) Completed() bool {
	return e.Status == StatusCompleted
}

// CountCompleted returns how many entries are completed, capped at StepFinished.
func CountCompleted(entries []TrackEntry) int {
	n := 0
	for _, e := range entries {
		if e.Completed() {
			n++
		}
	}
	if n > int(StepFinished) {
		n = int(StepFinished)
	}
	return n
}

// JourneyState is the progress of one slot's fulfillment workflow. Flags are
// never stored: they are derived from CurrentStep on read.
type JourneyState struct {
	SlotID      string    `json:"slot_id"`
	CurrentStep Step      `json:"current_step"`
	Generation  uint64    `json:"generation"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
}

func NewJourneyState(slotID string) JourneyState {
	return JourneyState{SlotID: slotID, CurrentStep: StepStartJourney}
}

func (s JourneyState) Validate() error {
	if s.SlotID == "" {
		return ErrSlotRequired
	}
	if !s.CurrentStep.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(s.CurrentStep))
	}
	return nil
}

func (s JourneyState) Flags() Flags {
	return FlagsAt(s.CurrentStep)
}

func (s JourneyState) Flag(f Flag) (bool, error) {
	threshold, err := f.Threshold()
	if err != nil {
		return false, err
	}
	return s.CurrentStep >= threshold, nil
}

func (s JourneyState) Finished() bool {
	return s.CurrentStep >= StepFinished
}

// ConfirmEnabled reports whether the confirm action may complete the current step.
func (s JourneyState) ConfirmEnabled() bool {
	return s.CurrentStep.Valid() && !s.Finished()
}

// StepperPosition is the highlighted index of a five-step stepper.
func (s JourneyState) StepperPosition() int {
	if s.CurrentStep > StepEnd {
		return int(StepEnd)
	}
	if s.CurrentStep < StepStartJourney {
		return int(StepStartJourney)
	}
	return int(s.CurrentStep)
}

// AvailableUpload is the upload that completes the current step, if any.
func (s JourneyState) AvailableUpload() UploadKind {
	switch s.CurrentStep {
	case StepStartJourney:
		return UploadOdometerPhoto
	case StepReach:
		return UploadDestinationImage
	case StepStartShift:
		return UploadConsentForm
	case StepProcess:
		return UploadProgressNote
	default:
		return UploadNone
	}
}

// Action is a single mutation of a JourneyState; Apply is the only writer.
type Action interface {
	reduce(JourneyState) (JourneyState, error)
}

// SetStep overwrites the current step.
type SetStep struct{ Step Step }

// SetFlag marks a sub-task done or undone, moving the step with it.
type SetFlag struct {
	Flag  Flag
	Value bool
}

// Advance moves to the next step.
type Advance struct{}

// Reset returns the journey to its first step.
type Reset struct{}

// SyncCompleted adopts the remote count of completed track entries.
type SyncCompleted struct {
	Completed int
	At        time.Time
}

// Apply runs action against state. On error, or when the action changes
// nothing, the original state is returned untouched; otherwise the
// generation is bumped.
func Apply(state JourneyState, action Action) (JourneyState, error) {
	next, err := action.reduce(state)
	if err != nil {
		return state, err
	}
	if next == state {
		return state, nil
	}
	next.Generation = state.Generation + 1
	return next, nil
}

func (a SetStep) reduce(s JourneyState) (JourneyState, error) {
	if !a.Step.Valid() {
		return s, fmt.Errorf("%w: %d", ErrInvalidStep, int(a.Step))
	}
	s.CurrentStep = a.Step
	return s, nil
}

func (a SetFlag) reduce(s JourneyState) (JourneyState, error) {
	threshold, err := a.Flag.Threshold()
	if err != nil {
		return s, err
	}
	if a.Value {
		if s.CurrentStep >= threshold {
			return s, nil
		}
		if s.CurrentStep < threshold-1 {
			return s, fmt.Errorf("%w: %s needs %s completed first (at %s)", ErrStepOutOfOrder, a.Flag, (threshold - 1).Label(), s.CurrentStep.Label())
		}
		s.CurrentStep = threshold
		return s, nil
	}
	if s.CurrentStep >= threshold {
		s.CurrentStep = threshold - 1
	}
	return s, nil
}

func (Advance) reduce(s JourneyState) (JourneyState, error) {
	if s.Finished() {
		return s, ErrJourneyFinished
	}
	s.CurrentStep++
	return s, nil
}

func (Reset) reduce(s JourneyState) (JourneyState, error) {
	s.CurrentStep = StepStartJourney
	s.RefreshedAt = time.Time{}
	return s, nil
}

func (a SyncCompleted) reduce(s JourneyState) (JourneyState, error) {
	if a.Completed < 0 {
		return s, fmt.Errorf("%w: negative completed count %d", ErrInvalidStep, a.Completed)
	}
	n := a.Completed
	if n > int(StepFinished) {
		n = int(StepFinished)
	}
	s.CurrentStep = Step(n)
	s.RefreshedAt = a.At
	return s, nil
}
