package in

import (
	"context"

	journeydto "shiftbuddy/internal/modules/journey/dto"
	journeyin "shiftbuddy/internal/modules/journey/port/in"
)

// TUIHandler exposes the subset of journey operations the screen drives.
type TUIHandler struct {
	usecase journeyin.Usecase
}

func NewTUIHandler(usecase journeyin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Current(ctx context.Context) (journeydto.JourneyOutput, error) {
	return h.usecase.Get(ctx)
}

func (h TUIHandler) Refresh(ctx context.Context) (journeydto.RefreshOutput, error) {
	return h.usecase.Refresh(ctx)
}

func (h TUIHandler) Confirm(ctx context.Context) (journeydto.RefreshOutput, error) {
	return h.usecase.CompleteStep(ctx, journeydto.CompleteStepInput{})
}

func (h TUIHandler) Upload(ctx context.Context, flag string) (journeydto.JourneyOutput, error) {
	return h.usecase.SetFlag(ctx, journeydto.SetFlagInput{Flag: flag, Value: true})
}

func (h TUIHandler) Feedback(ctx context.Context, rating int, comment string) (journeydto.FeedbackOutput, error) {
	return h.usecase.SubmitFeedback(ctx, journeydto.FeedbackInput{Rating: rating, Comment: comment})
}

func (h TUIHandler) Reset(ctx context.Context) (journeydto.JourneyOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h TUIHandler) History(ctx context.Context, limit int) ([]journeydto.TrackEntryOutput, error) {
	return h.usecase.History(ctx, journeydto.HistoryInput{Limit: limit})
}
