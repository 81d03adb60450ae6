package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"shiftbuddy/internal/modules/journey/domain"
	journeydto "shiftbuddy/internal/modules/journey/dto"
	journeyin "shiftbuddy/internal/modules/journey/port/in"
	journeyout "shiftbuddy/internal/modules/journey/port/out"
	"shiftbuddy/internal/modules/journey/service"
	"shiftbuddy/internal/platform/clock"
	apperrors "shiftbuddy/internal/platform/errors"
	"shiftbuddy/internal/platform/logging"
)

// Interactor drives the active journey: it loads the persisted state into the
// service, applies mutations or refreshes, and writes the result back.
// projector, receipts and recorder are optional.
type Interactor struct {
	svc       *service.JourneyService
	clock     clock.Clock
	tracker   journeyout.SlotTracker
	store     journeyout.JourneyStore
	projector journeyout.TrackProjector
	receipts  journeyout.ReceiptStore
	recorder  journeyout.Recorder
	logger    hclog.Logger
}

func NewInteractor(
	svc *service.JourneyService,
	clock clock.Clock,
	tracker journeyout.SlotTracker,
	store journeyout.JourneyStore,
	projector journeyout.TrackProjector,
	receipts journeyout.ReceiptStore,
	recorder journeyout.Recorder,
	logger hclog.Logger,
) journeyin.Usecase {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Interactor{
		svc:       svc,
		clock:     clock,
		tracker:   tracker,
		store:     store,
		projector: projector,
		receipts:  receipts,
		recorder:  recorder,
		logger:    logger.Named("journey"),
	}
}

func (i *Interactor) Start(ctx context.Context, input journeydto.StartInput) (journeydto.RefreshOutput, error) {
	slotID := strings.TrimSpace(input.SlotID)
	if slotID == "" {
		return journeydto.RefreshOutput{}, fmt.Errorf("%w: slot id is required", apperrors.ErrInvalidInput)
	}
	active, err := i.store.LoadActive(ctx)
	switch {
	case err == nil && active.SlotID != slotID:
		return journeydto.RefreshOutput{}, fmt.Errorf("%w: %s", apperrors.ErrActiveJourneyExists, active.SlotID)
	case err == nil:
		if err := i.svc.Load(active); err != nil {
			return journeydto.RefreshOutput{}, err
		}
	case errors.Is(err, apperrors.ErrNoActiveJourney):
		fresh := domain.NewJourneyState(slotID)
		if err := i.svc.Load(fresh); err != nil {
			return journeydto.RefreshOutput{}, err
		}
		if err := i.store.SaveActive(ctx, fresh); err != nil {
			return journeydto.RefreshOutput{}, err
		}
		i.logger.Info("journey started", logging.KeySlotID, slotID)
	default:
		return journeydto.RefreshOutput{}, err
	}
	return i.refresh(ctx, slotID)
}

func (i *Interactor) Get(ctx context.Context) (journeydto.JourneyOutput, error) {
	state, err := i.ensureLoaded(ctx)
	if err != nil {
		return journeydto.JourneyOutput{}, err
	}
	return toJourneyOutput(state), nil
}

func (i *Interactor) Refresh(ctx context.Context) (journeydto.RefreshOutput, error) {
	state, err := i.ensureLoaded(ctx)
	if err != nil {
		return journeydto.RefreshOutput{}, err
	}
	return i.refresh(ctx, state.SlotID)
}

func (i *Interactor) Advance(ctx context.Context) (journeydto.JourneyOutput, error) {
	return i.dispatch(ctx, domain.Advance{})
}

func (i *Interactor) SetStep(ctx context.Context, input journeydto.SetStepInput) (journeydto.JourneyOutput, error) {
	step, err := domain.ParseStep(input.Step)
	if err != nil {
		return journeydto.JourneyOutput{}, err
	}
	return i.dispatch(ctx, domain.SetStep{Step: step})
}

func (i *Interactor) SetFlag(ctx context.Context, input journeydto.SetFlagInput) (journeydto.JourneyOutput, error) {
	flag, err := domain.ParseFlag(input.Flag)
	if err != nil {
		return journeydto.JourneyOutput{}, err
	}
	return i.dispatch(ctx, domain.SetFlag{Flag: flag, Value: input.Value})
}

func (i *Interactor) Reset(ctx context.Context) (journeydto.JourneyOutput, error) {
	return i.dispatch(ctx, domain.Reset{})
}

// Close forgets the active journey. The in-memory state goes first so an
// in-flight refresh cannot write the file back after it is cleared.
func (i *Interactor) Close(ctx context.Context) error {
	i.svc.Unload()
	if err := i.store.ClearActive(ctx); err != nil {
		return err
	}
	i.logger.Info("journey closed")
	return nil
}

// CompleteStep confirms the current step with the slot-track API, then
// re-derives the state from the remote track.
func (i *Interactor) CompleteStep(ctx context.Context, input journeydto.CompleteStepInput) (journeydto.RefreshOutput, error) {
	state, err := i.ensureLoaded(ctx)
	if err != nil {
		return journeydto.RefreshOutput{}, err
	}
	switch {
	case state.Finished():
		return journeydto.RefreshOutput{}, domain.ErrJourneyFinished
	case state.CurrentStep == domain.StepEnd:
		return journeydto.RefreshOutput{}, fmt.Errorf("%w: the end step is completed by submitting feedback", apperrors.ErrInvalidInput)
	}
	update := journeyout.TrackUpdate{Step: state.CurrentStep.Key(), Status: domain.StatusCompleted, Note: strings.TrimSpace(input.Note)}
	if err := i.tracker.UpdateTrack(ctx, state.SlotID, update); err != nil {
		i.logger.Warn("step confirmation failed", logging.KeySlotID, state.SlotID, logging.KeyStep, update.Step, logging.KeyError, err)
		return journeydto.RefreshOutput{}, err
	}
	i.logger.Info("step confirmed", logging.KeySlotID, state.SlotID, logging.KeyStep, update.Step)
	return i.refresh(ctx, state.SlotID)
}

func (i *Interactor) SubmitFeedback(ctx context.Context, input journeydto.FeedbackInput) (journeydto.FeedbackOutput, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return journeydto.FeedbackOutput{}, fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrInvalidInput)
	}
	state, err := i.ensureLoaded(ctx)
	if err != nil {
		return journeydto.FeedbackOutput{}, err
	}
	switch {
	case state.Finished():
		return journeydto.FeedbackOutput{}, domain.ErrJourneyFinished
	case state.CurrentStep < domain.StepEnd:
		return journeydto.FeedbackOutput{}, fmt.Errorf("%w: feedback opens at %s, journey is at %s", domain.ErrStepOutOfOrder, domain.StepEnd.Label(), state.CurrentStep.Label())
	}
	comment := strings.TrimSpace(input.Comment)
	update := journeyout.TrackUpdate{Step: domain.StepEnd.Key(), Status: domain.StatusCompleted, Rating: input.Rating, Comment: comment}
	if err := i.tracker.UpdateTrack(ctx, state.SlotID, update); err != nil {
		i.logger.Warn("feedback submission failed", logging.KeySlotID, state.SlotID, logging.KeyError, err)
		return journeydto.FeedbackOutput{}, err
	}

	refreshed, refreshErr := i.refreshResult(ctx, state.SlotID)
	out := journeydto.FeedbackOutput{Journey: refreshed.Journey}
	if i.receipts != nil {
		path, err := i.receipts.Save(ctx, journeyout.Receipt{
			SlotID:      state.SlotID,
			Rating:      input.Rating,
			Comment:     comment,
			SubmittedAt: i.clock.Now(),
			Entries:     refreshed.entries,
		})
		if err != nil {
			return out, err
		}
		out.ReceiptPath = path
	}
	return out, refreshErr
}

func (i *Interactor) History(ctx context.Context, input journeydto.HistoryInput) ([]journeydto.TrackEntryOutput, error) {
	slotID := strings.TrimSpace(input.SlotID)
	if slotID == "" {
		state, err := i.ensureLoaded(ctx)
		if err != nil {
			return nil, err
		}
		slotID = state.SlotID
	}
	if i.projector == nil {
		return nil, nil
	}
	records, err := i.projector.ListTrack(ctx, slotID, input.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]journeydto.TrackEntryOutput, 0, len(records))
	for _, r := range records {
		out = append(out, journeydto.TrackEntryOutput{
			SlotID:    r.SlotID,
			Step:      r.Entry.Step,
			Status:    r.Entry.Status,
			UpdatedAt: r.Entry.UpdatedAt,
			FetchedAt: r.FetchedAt,
		})
	}
	return out, nil
}

// ensureLoaded returns the in-memory journey, reading the persisted one on first use.
func (i *Interactor) ensureLoaded(ctx context.Context) (domain.JourneyState, error) {
	if state, active := i.svc.Snapshot(); active {
		return state, nil
	}
	stored, err := i.store.LoadActive(ctx)
	if err != nil {
		return domain.JourneyState{}, err
	}
	if err := i.svc.Load(stored); err != nil {
		return domain.JourneyState{}, err
	}
	return stored, nil
}

func (i *Interactor) dispatch(ctx context.Context, action domain.Action) (journeydto.JourneyOutput, error) {
	if _, err := i.ensureLoaded(ctx); err != nil {
		return journeydto.JourneyOutput{}, err
	}
	state, err := i.svc.Dispatch(action)
	if err != nil {
		return toJourneyOutput(state), err
	}
	if err := i.store.SaveActive(ctx, state); err != nil {
		return journeydto.JourneyOutput{}, err
	}
	i.observeStep(state)
	return toJourneyOutput(state), nil
}

type refreshOutcome struct {
	journeydto.RefreshOutput
	entries []domain.TrackEntry
}

func (i *Interactor) refresh(ctx context.Context, slotID string) (journeydto.RefreshOutput, error) {
	out, err := i.refreshResult(ctx, slotID)
	return out.RefreshOutput, err
}

func (i *Interactor) refreshResult(ctx context.Context, slotID string) (refreshOutcome, error) {
	started := i.clock.Now()
	res, err := i.svc.RefreshSlotTrack(ctx, slotID)
	if i.recorder != nil {
		i.recorder.ObserveRefresh(string(res.Outcome), i.clock.Now().Sub(started))
	}
	out := refreshOutcome{
		RefreshOutput: journeydto.RefreshOutput{
			Outcome:        res.Outcome,
			CompletedSteps: res.CompletedSteps,
			RequestID:      res.RequestID,
			Journey:        toJourneyOutput(res.State),
		},
		entries: res.Entries,
	}
	if err != nil {
		out.Err = err.Error()
		return out, err
	}
	if res.Outcome != journeydto.RefreshApplied {
		return out, nil
	}
	if err := i.store.SaveActive(ctx, res.State); err != nil {
		return out, err
	}
	if i.projector != nil {
		if err := i.projector.ReplaceTrack(ctx, slotID, res.State.RefreshedAt, res.Entries); err != nil {
			i.logger.Warn("track projection failed", logging.KeySlotID, slotID, logging.KeyError, err)
		}
	}
	i.observeStep(res.State)
	return out, nil
}

func (i *Interactor) observeStep(state domain.JourneyState) {
	if i.recorder != nil {
		i.recorder.SetStep(state.SlotID, int(state.CurrentStep))
	}
}

func toJourneyOutput(state domain.JourneyState) journeydto.JourneyOutput {
	flags := state.Flags()
	return journeydto.JourneyOutput{
		SlotID:          state.SlotID,
		Step:            int(state.CurrentStep),
		StepKey:         state.CurrentStep.Key(),
		StepLabel:       state.CurrentStep.Label(),
		StepperPosition: state.StepperPosition(),
		Finished:        state.Finished(),
		ConfirmEnabled:  state.ConfirmEnabled(),
		AvailableUpload: string(state.AvailableUpload()),
		Flags: journeydto.FlagsOutput{
			OdometerUploaded:     flags.OdometerUploaded,
			DestinationReached:   flags.DestinationReached,
			ImageUploaded:        flags.ImageUploaded,
			ConsentFormUploaded:  flags.ConsentFormUploaded,
			TreatmentStarted:     flags.TreatmentStarted,
			ProgressNoteUploaded: flags.ProgressNoteUploaded,
			FeedbackSubmitted:    flags.FeedbackSubmitted,
		},
		Generation:  state.Generation,
		RefreshedAt: state.RefreshedAt,
	}
}
