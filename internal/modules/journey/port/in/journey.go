package in

import (
	"context"

	"shiftbuddy/internal/modules/journey/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.RefreshOutput, error)
	Get(ctx context.Context) (dto.JourneyOutput, error)
	Refresh(ctx context.Context) (dto.RefreshOutput, error)
	Advance(ctx context.Context) (dto.JourneyOutput, error)
	SetStep(ctx context.Context, input dto.SetStepInput) (dto.JourneyOutput, error)
	SetFlag(ctx context.Context, input dto.SetFlagInput) (dto.JourneyOutput, error)
	CompleteStep(ctx context.Context, input dto.CompleteStepInput) (dto.RefreshOutput, error)
	SubmitFeedback(ctx context.Context, input dto.FeedbackInput) (dto.FeedbackOutput, error)
	Reset(ctx context.Context) (dto.JourneyOutput, error)
	Close(ctx context.Context) error
	History(ctx context.Context, input dto.HistoryInput) ([]dto.TrackEntryOutput, error)
}
