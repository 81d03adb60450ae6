package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"shiftbuddy/internal/modules/journey/domain"
	journeyout "shiftbuddy/internal/modules/journey/port/out"
	apperrors "shiftbuddy/internal/platform/errors"
)

type persistedJourney struct {
	SchemaVersion int `json:"schema_version"`
	domain.JourneyState
}

type FileJourneyStore struct {
	path string
}

func NewFileJourneyStore(stateDir string) journeyout.JourneyStore {
	return &FileJourneyStore{path: filepath.Join(stateDir, "active-journey.json")}
}

func (s *FileJourneyStore) SaveActive(_ context.Context, state domain.JourneyState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create journey state dir: %w", err)
	}
	payload, err := json.MarshalIndent(persistedJourney{SchemaVersion: domain.SchemaVersion, JourneyState: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active journey: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write active journey: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace active journey: %w", err)
	}
	return nil
}

func (s *FileJourneyStore) LoadActive(_ context.Context) (domain.JourneyState, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.JourneyState{}, apperrors.ErrNoActiveJourney
		}
		return domain.JourneyState{}, fmt.Errorf("read active journey: %w", err)
	}
	stored := persistedJourney{}
	if err := json.Unmarshal(payload, &stored); err != nil {
		return domain.JourneyState{}, fmt.Errorf("decode active journey: %w", err)
	}
	if stored.SlotID == "" {
		return domain.JourneyState{}, apperrors.ErrNoActiveJourney
	}
	if stored.SchemaVersion > domain.SchemaVersion {
		return domain.JourneyState{}, fmt.Errorf("active journey schema %d is newer than supported %d", stored.SchemaVersion, domain.SchemaVersion)
	}
	if err := stored.JourneyState.Validate(); err != nil {
		return domain.JourneyState{}, fmt.Errorf("active journey: %w", err)
	}
	return stored.JourneyState, nil
}

func (s *FileJourneyStore) ClearActive(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear active journey: %w", err)
	}
	return nil
}
