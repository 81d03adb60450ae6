package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shiftbuddy/internal/modules/journey/domain"
	journeyout "shiftbuddy/internal/modules/journey/port/out"
	apperrors "shiftbuddy/internal/platform/errors"
	"shiftbuddy/internal/platform/retry"
)

const maxTrackBody = 1 << 20

// HTTPSlotTracker talks to the slot-track endpoints of the booking API.
type HTTPSlotTracker struct {
	baseURL string
	token   string
	timeout time.Duration
	policy  retry.Policy
	client  *http.Client
}

type trackEnvelope struct {
	Data []domain.TrackEntry `json:"data"`
}

// statusError marks responses worth retrying. A 404 unwraps to ErrNotFound.
type statusError struct {
	status    string
	retryable bool
	notFound  bool
}

func (e *statusError) Error() string { return "slot track api returned " + e.status }

func (e *statusError) Unwrap() error {
	if e.notFound {
		return apperrors.ErrNotFound
	}
	return nil
}

type transportError struct{ err error }

func (e *transportError) Error() string { return "track request: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func NewHTTPSlotTracker(baseURL, token string, timeout time.Duration, policy retry.Policy, client *http.Client) *HTTPSlotTracker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSlotTracker{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		policy:  policy,
		client:  client,
	}
}

var _ journeyout.SlotTracker = (*HTTPSlotTracker)(nil)

func (h *HTTPSlotTracker) FetchTrack(ctx context.Context, slotID string) ([]domain.TrackEntry, error) {
	var entries []domain.TrackEntry
	err := h.withRetry(ctx, func(ctx context.Context) error {
		body, err := h.do(ctx, http.MethodGet, slotID, nil)
		if err != nil {
			return err
		}
		entries, err = decodeTrack(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSlotTrackFetch, err)
	}
	return entries, nil
}

func (h *HTTPSlotTracker) UpdateTrack(ctx context.Context, slotID string, update journeyout.TrackUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("%w: encode update: %w", apperrors.ErrSlotTrackUpdate, err)
	}
	err = h.withRetry(ctx, func(ctx context.Context) error {
		_, err := h.do(ctx, http.MethodPost, slotID, payload)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrSlotTrackUpdate, err)
	}
	return nil
}

func (h *HTTPSlotTracker) endpoint(slotID string) (string, error) {
	if h.baseURL == "" {
		return "", fmt.Errorf("api url is not configured")
	}
	if strings.TrimSpace(slotID) == "" {
		return "", domain.ErrSlotRequired
	}
	return h.baseURL + "/slots/" + url.PathEscape(slotID) + "/track", nil
}

func (h *HTTPSlotTracker) do(ctx context.Context, method, slotID string, payload []byte) ([]byte, error) {
	endpoint, err := h.endpoint(slotID)
	if err != nil {
		return nil, err
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build track request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTrackBody))
	if err != nil {
		return nil, fmt.Errorf("read track response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{
			status:    resp.Status,
			retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			notFound:  resp.StatusCode == http.StatusNotFound,
		}
	}
	return body, nil
}

// decodeTrack accepts {"data":[...]} or a bare array.
func decodeTrack(body []byte) ([]domain.TrackEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []domain.TrackEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode track response: %w", err)
		}
		return entries, nil
	}
	var env trackEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode track response: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("decode track response: missing data")
	}
	return env.Data, nil
}

func (h *HTTPSlotTracker) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= h.policy.MaxRetries || !retryable(err) {
			return err
		}
		timer := time.NewTimer(h.policy.Delay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable
	}
	var te *transportError
	return errors.As(err, &te)
}
