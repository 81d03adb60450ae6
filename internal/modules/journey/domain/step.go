package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is the position of a journey in the ordered fulfillment workflow.
// Values 0..4 are the labeled steps; StepFinished means all five are confirmed.
type Step int

const (
	StepStartJourney Step = iota
	StepReach
	StepStartShift
	StepProcess
	StepEnd
	StepFinished
)

// LabeledSteps is the number of steps a carrier walks through.
const LabeledSteps = int(StepFinished)

var stepKeys = [...]string{"start_journey", "reach", "start_shift", "process", "end", "finished"}

var stepLabels = [...]string{"Start Journey", "Reach", "Start Shift", "Process", "End", "Finished"}

func (s Step) Valid() bool {
	return s >= StepStartJourney && s <= StepFinished
}

// Key is the wire name used by the slot-track API.
func (s Step) Key() string {
	if !s.Valid() {
		return "step_" + strconv.Itoa(int(s))
	}
	return stepKeys[s]
}

func (s Step) Label() string {
	if !s.Valid() {
		return fmt.Sprintf("Step %d", int(s))
	}
	return stepLabels[s]
}

func (s Step) String() string { return s.Key() }

// ParseStep accepts either the wire key ("reach") or the numeric index ("1").
func ParseStep(raw string) (Step, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		s := Step(n)
		if !s.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidStep, n)
		}
		return s, nil
	}
	for i, key := range stepKeys {
		if key == raw {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStep, raw)
}

// UploadKind names the upload the UI may open at a given step.
type UploadKind string

const (
	UploadNone             UploadKind = ""
	UploadOdometerPhoto    UploadKind = "odometer_photo"
	UploadDestinationImage UploadKind = "destination_image"
	UploadConsentForm      UploadKind = "consent_form"
	UploadProgressNote     UploadKind = "progress_note"
)
