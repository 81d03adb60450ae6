package domain

import (
	"fmt"
	"strings"
)

// Flag is a fine-grained sub-task of the journey. Every flag completes at a
// fixed step threshold; two pairs share a threshold and are kept distinct.
type Flag string

const (
	FlagOdometerUploaded     Flag = "odometer_uploaded"
	FlagDestinationReached   Flag = "destination_reached"
	FlagImageUploaded        Flag = "image_uploaded"
	FlagConsentFormUploaded  Flag = "consent_form_uploaded"
	FlagTreatmentStarted     Flag = "treatment_started"
	FlagProgressNoteUploaded Flag = "progress_note_uploaded"
	FlagFeedbackSubmitted    Flag = "feedback_submitted"
)

var orderedFlags = []Flag{
	FlagOdometerUploaded,
	FlagDestinationReached,
	FlagImageUploaded,
	FlagConsentFormUploaded,
	FlagTreatmentStarted,
	FlagProgressNoteUploaded,
	FlagFeedbackSubmitted,
}

var flagThresholds = map[Flag]Step{
	FlagOdometerUploaded:     StepReach,
	FlagDestinationReached:   StepStartShift,
	FlagImageUploaded:        StepStartShift,
	FlagConsentFormUploaded:  StepProcess,
	FlagTreatmentStarted:     StepProcess,
	FlagProgressNoteUploaded: StepEnd,
	FlagFeedbackSubmitted:    StepFinished,
}

// AllFlags returns the flags in threshold order.
func AllFlags() []Flag {
	out := make([]Flag, len(orderedFlags))
	copy(out, orderedFlags)
	return out
}

// Threshold is the smallest step at which the flag reads true.
func (f Flag) Threshold() (Step, error) {
	step, ok := flagThresholds[f]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFlag, f)
	}
	return step, nil
}

func ParseFlag(raw string) (Flag, error) {
	f := Flag(strings.ToLower(strings.TrimSpace(raw)))
	if _, err := f.Threshold(); err != nil {
		return "", err
	}
	return f, nil
}

// Flags is the read model of the seven sub-task flags.
type Flags struct {
	OdometerUploaded     bool `json:"odometer_uploaded"`
	DestinationReached   bool `json:"destination_reached"`
	ImageUploaded        bool `json:"image_uploaded"`
	ConsentFormUploaded  bool `json:"consent_form_uploaded"`
	TreatmentStarted     bool `json:"treatment_started"`
	ProgressNoteUploaded bool `json:"progress_note_uploaded"`
	FeedbackSubmitted    bool `json:"feedback_submitted"`
}

// FlagsAt derives every flag from step.
func FlagsAt(step Step) Flags {
	return Flags{
		OdometerUploaded:     step >= flagThresholds[FlagOdometerUploaded],
		DestinationReached:   step >= flagThresholds[FlagDestinationReached],
		ImageUploaded:        step >= flagThresholds[FlagImageUploaded],
		ConsentFormUploaded:  step >= flagThresholds[FlagConsentFormUploaded],
		TreatmentStarted:     step >= flagThresholds[FlagTreatmentStarted],
		ProgressNoteUploaded: step >= flagThresholds[FlagProgressNoteUploaded],
		FeedbackSubmitted:    step >= flagThresholds[FlagFeedbackSubmitted],
	}
}
