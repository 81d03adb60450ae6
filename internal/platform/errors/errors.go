package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrNoActiveJourney     = errors.New("no active journey")
	ErrActiveJourneyExists = errors.New("active journey already exists for another slot")
	ErrSlotTrackFetch      = errors.New("slot track fetch failed")
	ErrSlotTrackUpdate     = errors.New("slot track update failed")
)
