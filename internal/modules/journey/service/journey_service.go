package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"shiftbuddy/internal/modules/journey/domain"
	"shiftbuddy/internal/modules/journey/dto"
	journeyout "shiftbuddy/internal/modules/journey/port/out"
	"shiftbuddy/internal/platform/clock"
	apperrors "shiftbuddy/internal/platform/errors"
	"shiftbuddy/internal/platform/id"
	"shiftbuddy/internal/platform/logging"
)

// RefreshResult is the tagged outcome of RefreshSlotTrack.
type RefreshResult struct {
	Outcome        dto.RefreshOutcome
	CompletedSteps int
	RequestID      string
	State          domain.JourneyState
	Entries        []domain.TrackEntry
}

type refreshToken struct {
	seq        uint64
	generation uint64
	requestID  string
}

// JourneyService owns the journey state of one process. Every mutation goes
// through dispatch; refreshes only land when they are the newest one issued
// and nothing else changed the state while they were in flight.
type JourneyService struct {
	clock   clock.Clock
	idGen   id.Generator
	tracker journeyout.SlotTracker
	logger  hclog.Logger

	mu          sync.Mutex
	state       domain.JourneyState
	active      bool
	latestToken uint64
}

func NewJourneyService(clock clock.Clock, idGen id.Generator, tracker journeyout.SlotTracker, logger hclog.Logger) *JourneyService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &JourneyService{clock: clock, idGen: idGen, tracker: tracker, logger: logger}
}

// Load adopts a persisted state as the active journey.
func (s *JourneyService) Load(state domain.JourneyState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.active = true
	s.latestToken++
	return nil
}

// Unload forgets the active journey and invalidates in-flight refreshes.
func (s *JourneyService) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.JourneyState{Generation: s.state.Generation + 1}
	s.active = false
	s.latestToken++
}

// Snapshot returns a copy of the state and whether a journey is active.
func (s *JourneyService) Snapshot() (domain.JourneyState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.active
}

func (s *JourneyService) Dispatch(action domain.Action) (domain.JourneyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return domain.JourneyState{}, apperrors.ErrNoActiveJourney
	}
	next, err := domain.Apply(s.state, action)
	if err != nil {
		return s.state, err
	}
	if next.Generation == s.state.Generation {
		return next, nil
	}
	s.state = next
	s.logger.Debug("journey mutated", logging.KeySlotID, next.SlotID, logging.KeyStep, next.CurrentStep.Key(), logging.KeyGeneration, next.Generation)
	return next, nil
}

func (s *JourneyService) SetCurrentStep(step domain.Step) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetStep{Step: step})
}

func (s *JourneyService) ProgressToNextStep() (domain.JourneyState, error) {
	return s.Dispatch(domain.Advance{})
}

func (s *JourneyService) ResetJourney() (domain.JourneyState, error) {
	return s.Dispatch(domain.Reset{})
}

func (s *JourneyService) SetOdometerUploaded(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagOdometerUploaded, Value: v})
}

func (s *JourneyService) SetDestinationReached(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagDestinationReached, Value: v})
}

func (s *JourneyService) SetImageUploaded(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagImageUploaded, Value: v})
}

func (s *JourneyService) SetConsentFormUploaded(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagConsentFormUploaded, Value: v})
}

func (s *JourneyService) SetTreatmentStarted(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagTreatmentStarted, Value: v})
}

func (s *JourneyService) SetProgressNoteUploaded(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagProgressNoteUploaded, Value: v})
}

func (s *JourneyService) SetFeedbackSubmitted(v bool) (domain.JourneyState, error) {
	return s.Dispatch(domain.SetFlag{Flag: domain.FlagFeedbackSubmitted, Value: v})
}

// RefreshSlotTrack re-derives the state from the remote track of slotID.
// A fetch error leaves the state untouched and is returned wrapped in
// ErrSlotTrackFetch next to a failed result.
func (s *JourneyService) RefreshSlotTrack(ctx context.Context, slotID string) (RefreshResult, error) {
	if slotID == "" {
		return RefreshResult{Outcome: dto.RefreshFailed}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, domain.ErrSlotRequired)
	}
	token := s.issueToken()
	log := s.logger.With(logging.KeySlotID, slotID, logging.KeyRequestID, token.requestID)

	entries, err := s.tracker.FetchTrack(ctx, slotID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSlotTrackFetch) {
			err = fmt.Errorf("%w: %w", apperrors.ErrSlotTrackFetch, err)
		}
		log.Warn("slot track refresh failed", logging.KeyError, err)
		state, _ := s.Snapshot()
		return RefreshResult{Outcome: dto.RefreshFailed, RequestID: token.requestID, State: state}, err
	}
	completed := domain.CountCompleted(entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	result := RefreshResult{CompletedSteps: completed, RequestID: token.requestID, Entries: entries}
	if token.seq != s.latestToken || token.generation != s.state.Generation {
		log.Debug("discarding stale slot track response", logging.KeyCompleted, completed)
		result.Outcome = dto.RefreshStale
		result.State = s.state
		return result, nil
	}
	base := s.state
	if !s.active || base.SlotID != slotID {
		base = domain.JourneyState{SlotID: slotID, Generation: base.Generation}
	}
	next, err := domain.Apply(base, domain.SyncCompleted{Completed: completed, At: s.clock.Now()})
	if err != nil {
		result.Outcome = dto.RefreshFailed
		result.State = s.state
		return result, err
	}
	s.state = next
	s.active = true
	log.Debug("slot track applied", logging.KeyCompleted, completed, logging.KeyStep, next.CurrentStep.Key())
	result.Outcome = dto.RefreshApplied
	result.State = next
	return result, nil
}

func (s *JourneyService) issueToken() refreshToken {
	requestID := s.idGen.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestToken++
	return refreshToken{seq: s.latestToken, generation: s.state.Generation, requestID: requestID}
}
