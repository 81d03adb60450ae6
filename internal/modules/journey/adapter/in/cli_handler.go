package in

import (
	"context"

	journeydto "shiftbuddy/internal/modules/journey/dto"
	journeyin "shiftbuddy/internal/modules/journey/port/in"
)

type CLIHandler struct {
	usecase journeyin.Usecase
}

func NewCLIHandler(usecase journeyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, slotID string) (journeydto.RefreshOutput, error) {
	return h.usecase.Start(ctx, journeydto.StartInput{SlotID: slotID})
}

func (h CLIHandler) Show(ctx context.Context) (journeydto.JourneyOutput, error) {
	return h.usecase.Get(ctx)
}

func (h CLIHandler) Refresh(ctx context.Context) (journeydto.RefreshOutput, error) {
	return h.usecase.Refresh(ctx)
}

func (h CLIHandler) Next(ctx context.Context) (journeydto.JourneyOutput, error) {
	return h.usecase.Advance(ctx)
}

func (h CLIHandler) SetStep(ctx context.Context, step string) (journeydto.JourneyOutput, error) {
	return h.usecase.SetStep(ctx, journeydto.SetStepInput{Step: step})
}

func (h CLIHandler) SetFlag(ctx context.Context, flag string, value bool) (journeydto.JourneyOutput, error) {
	return h.usecase.SetFlag(ctx, journeydto.SetFlagInput{Flag: flag, Value: value})
}

func (h CLIHandler) Complete(ctx context.Context, note string) (journeydto.RefreshOutput, error) {
	return h.usecase.CompleteStep(ctx, journeydto.CompleteStepInput{Note: note})
}

func (h CLIHandler) Feedback(ctx context.Context, rating int, comment string) (journeydto.FeedbackOutput, error) {
	return h.usecase.SubmitFeedback(ctx, journeydto.FeedbackInput{Rating: rating, Comment: comment})
}

func (h CLIHandler) Reset(ctx context.Context) (journeydto.JourneyOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) Close(ctx context.Context) error {
	return h.usecase.Close(ctx)
}

func (h CLIHandler) History(ctx context.Context, slotID string, limit int) ([]journeydto.TrackEntryOutput, error) {
	return h.usecase.History(ctx, journeydto.HistoryInput{SlotID: slotID, Limit: limit})
}
