package domain

import (
	"errors"
	"testing"
	"time"
)

func entries(statuses ...string) []TrackEntry {
	out := make([]TrackEntry, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, TrackEntry{Step: Step(i).Key(), Status: s})
	}
	return out
}

func TestSyncCompletedDerivesEveryFlag(t *testing.T) {
	t.Parallel()
	for completed := 0; completed <= 5; completed++ {
		state, err := Apply(NewJourneyState("slot-1"), SyncCompleted{Completed: completed})
		if err != nil {
			t.Fatalf("sync %d: %v", completed, err)
		}
		if int(state.CurrentStep) != completed {
			t.Fatalf("completed=%d: expected step %d got %d", completed, completed, state.CurrentStep)
		}
		want := Flags{
			OdometerUploaded:     completed >= 1,
			DestinationReached:   completed >= 2,
			ImageUploaded:        completed >= 2,
			ConsentFormUploaded:  completed >= 3,
			TreatmentStarted:     completed >= 3,
			ProgressNoteUploaded: completed >= 4,
			FeedbackSubmitted:    completed >= 5,
		}
		if got := state.Flags(); got != want {
			t.Fatalf("completed=%d: flags %+v want %+v", completed, got, want)
		}
	}
}

func TestCountCompletedScenario(t *testing.T) {
	t.Parallel()
	n := CountCompleted(entries("completed", "completed", "pending"))
	if n != 2 {
		t.Fatalf("expected 2 completed, got %d", n)
	}
	state, err := Apply(NewJourneyState("slot-1"), SyncCompleted{Completed: n})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	flags := state.Flags()
	if state.CurrentStep != StepStartShift || !flags.OdometerUploaded || !flags.DestinationReached || !flags.ImageUploaded {
		t.Fatalf("unexpected state %+v flags %+v", state, flags)
	}
	if flags.ConsentFormUploaded || flags.FeedbackSubmitted {
		t.Fatalf("later flags must be false: %+v", flags)
	}
}

func TestCountCompletedIgnoresOtherStatusesAndCaps(t *testing.T) {
	t.Parallel()
	if n := CountCompleted(entries("Completed", "done", "")); n != 0 {
		t.Fatalf("expected exact status match only, got %d", n)
	}
	if n := CountCompleted(entries("completed", "completed", "completed", "completed", "completed", "completed", "completed")); n != 5 {
		t.Fatalf("expected cap at 5, got %d", n)
	}
}

func TestResetClearsProgress(t *testing.T) {
	t.Parallel()
	state := JourneyState{SlotID: "slot-1", CurrentStep: StepEnd, Generation: 7, RefreshedAt: time.Now()}
	state, err := Apply(state, Reset{})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if state.CurrentStep != StepStartJourney || state.Flags() != (Flags{}) || !state.RefreshedAt.IsZero() {
		t.Fatalf("reset left progress behind: %+v", state)
	}
	if state.Generation != 8 {
		t.Fatalf("expected generation bump, got %d", state.Generation)
	}
}

func TestAdvanceStopsAtFinished(t *testing.T) {
	t.Parallel()
	state := JourneyState{SlotID: "slot-1", CurrentStep: StepEnd}
	state, err := Apply(state, Advance{})
	if err != nil {
		t.Fatalf("advance from end: %v", err)
	}
	if state.CurrentStep != StepFinished || !state.Flags().FeedbackSubmitted {
		t.Fatalf("expected finished, got %+v", state)
	}
	again, err := Apply(state, Advance{})
	if !errors.Is(err, ErrJourneyFinished) {
		t.Fatalf("expected ErrJourneyFinished, got %v", err)
	}
	if again != state {
		t.Fatalf("failed advance must not mutate: %+v vs %+v", again, state)
	}
}

func TestNoopActionsKeepGeneration(t *testing.T) {
	t.Parallel()
	state := JourneyState{SlotID: "slot-1", CurrentStep: StepStartShift, Generation: 3}
	for _, action := range []Action{
		SetFlag{Flag: FlagImageUploaded, Value: true},
		SetFlag{Flag: FlagTreatmentStarted, Value: false},
		SetStep{Step: StepStartShift},
	} {
		got, err := Apply(state, action)
		if err != nil {
			t.Fatalf("%T: %v", action, err)
		}
		if got != state {
			t.Fatalf("%T changed nothing but returned %+v", action, got)
		}
	}
}

func TestSetStepRejectsOutOfRange(t *testing.T) {
	t.Parallel()
	state := NewJourneyState("slot-1")
	for _, step := range []Step{-1, 6} {
		if _, err := Apply(state, SetStep{Step: step}); !errors.Is(err, ErrInvalidStep) {
			t.Fatalf("step %d: expected ErrInvalidStep, got %v", step, err)
		}
	}
	state, err := Apply(state, SetStep{Step: StepProcess})
	if err != nil || state.CurrentStep != StepProcess {
		t.Fatalf("set step: %v %+v", err, state)
	}
}

func TestSetFlagKeepsOrder(t *testing.T) {
	t.Parallel()
	state := NewJourneyState("slot-1")
	if _, err := Apply(state, SetFlag{Flag: FlagConsentFormUploaded, Value: true}); !errors.Is(err, ErrStepOutOfOrder) {
		t.Fatalf("expected out-of-order error, got %v", err)
	}

	state, err := Apply(state, SetFlag{Flag: FlagOdometerUploaded, Value: true})
	if err != nil || state.CurrentStep != StepReach {
		t.Fatalf("odometer: %v %+v", err, state)
	}
	state, err = Apply(state, SetFlag{Flag: FlagImageUploaded, Value: true})
	if err != nil || state.CurrentStep != StepStartShift {
		t.Fatalf("image: %v %+v", err, state)
	}
	if !state.Flags().DestinationReached {
		t.Fatalf("shared threshold flag must follow: %+v", state.Flags())
	}
	state, err = Apply(state, SetFlag{Flag: FlagDestinationReached, Value: true})
	if err != nil || state.CurrentStep != StepStartShift {
		t.Fatalf("already satisfied flag should be a no-op: %v %+v", err, state)
	}

	state, err = Apply(state, SetFlag{Flag: FlagOdometerUploaded, Value: false})
	if err != nil || state.CurrentStep != StepStartJourney {
		t.Fatalf("clearing odometer must roll back: %v %+v", err, state)
	}
	if _, err := Apply(state, SetFlag{Flag: "bogus", Value: true}); !errors.Is(err, ErrUnknownFlag) {
		t.Fatalf("expected unknown flag, got %v", err)
	}
}

func TestGating(t *testing.T) {
	t.Parallel()
	cases := []struct {
		step     Step
		upload   UploadKind
		confirm  bool
		position int
	}{
		{StepStartJourney, UploadOdometerPhoto, true, 0},
		{StepReach, UploadDestinationImage, true, 1},
		{StepStartShift, UploadConsentForm, true, 2},
		{StepProcess, UploadProgressNote, true, 3},
		{StepEnd, UploadNone, true, 4},
		{StepFinished, UploadNone, false, 4},
	}
	for _, tc := range cases {
		s := JourneyState{SlotID: "slot-1", CurrentStep: tc.step}
		if s.AvailableUpload() != tc.upload || s.ConfirmEnabled() != tc.confirm || s.StepperPosition() != tc.position {
			t.Fatalf("step %s: upload=%q confirm=%t position=%d", tc.step, s.AvailableUpload(), s.ConfirmEnabled(), s.StepperPosition())
		}
	}
}

func TestParseStepAndFlag(t *testing.T) {
	t.Parallel()
	if s, err := ParseStep("start_shift"); err != nil || s != StepStartShift {
		t.Fatalf("parse key: %v %v", s, err)
	}
	if s, err := ParseStep("4"); err != nil || s != StepEnd {
		t.Fatalf("parse index: %v %v", s, err)
	}
	if _, err := ParseStep("9"); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected invalid step, got %v", err)
	}
	if f, err := ParseFlag(" Treatment_Started "); err != nil || f != FlagTreatmentStarted {
		t.Fatalf("parse flag: %v %v", f, err)
	}
	if len(AllFlags()) != 7 {
		t.Fatalf("expected seven flags")
	}
}
