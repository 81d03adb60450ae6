package dto

import "time"

// RefreshOutcome tags the result of a slot-track refresh.
type RefreshOutcome string

const (
	RefreshApplied RefreshOutcome = "applied"
	RefreshStale   RefreshOutcome = "stale"
	RefreshFailed  RefreshOutcome = "failed"
)

type FlagsOutput struct {
	OdometerUploaded     bool `json:"odometer_uploaded"`
	DestinationReached   bool `json:"destination_reached"`
	ImageUploaded        bool `json:"image_uploaded"`
	ConsentFormUploaded  bool `json:"consent_form_uploaded"`
	TreatmentStarted     bool `json:"treatment_started"`
	ProgressNoteUploaded bool `json:"progress_note_uploaded"`
	FeedbackSubmitted    bool `json:"feedback_submitted"`
}

type JourneyOutput struct {
	SlotID          string      `json:"slot_id"`
	Step            int         `json:"step"`
	StepKey         string      `json:"step_key"`
	StepLabel       string      `json:"step_label"`
	StepperPosition int         `json:"stepper_position"`
	Finished        bool        `json:"finished"`
	ConfirmEnabled  bool        `json:"confirm_enabled"`
	AvailableUpload string      `json:"available_upload"`
	Flags           FlagsOutput `json:"flags"`
	Generation      uint64      `json:"generation"`
	RefreshedAt     time.Time   `json:"refreshed_at"`
}

type RefreshOutput struct {
	Outcome        RefreshOutcome `json:"outcome"`
	CompletedSteps int            `json:"completed_steps"`
	RequestID      string         `json:"request_id"`
	Journey        JourneyOutput  `json:"journey"`
	Err            string         `json:"error,omitempty"`
}

type StartInput struct {
	SlotID string
}

type SetStepInput struct {
	Step string
}

type SetFlagInput struct {
	Flag  string
	Value bool
}

type CompleteStepInput struct {
	Note string
}

type FeedbackInput struct {
	Rating  int
	Comment string
}

type FeedbackOutput struct {
	Journey     JourneyOutput `json:"journey"`
	ReceiptPath string        `json:"receipt_path"`
}

type HistoryInput struct {
	SlotID string
	Limit  int
}

type TrackEntryOutput struct {
	SlotID    string    `json:"slot_id"`
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	FetchedAt time.Time `json:"fetched_at"`
}
