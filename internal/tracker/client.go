// Package tracker pulls completion events from the external work-item
// tracker and feeds them to the award service. Awards are idempotent on
// the task id, so re-polling the same events is harmless.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rangkeep/rangs/internal/logger"
	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/task"
	"github.com/rangkeep/rangs/internal/serviceerrs"
)

// CompletionEvent is one completed work item as the tracker reports it.
type CompletionEvent struct {
	UserID string         `json:"user_id"`
	Task   task.Completed `json:"task"`
}

type Client struct {
	client      http.Client
	trackerAddr string
}

func NewClient(trackerAddr string) *Client {
	return &Client{
		client:      http.Client{},
		trackerAddr: trackerAddr,
	}
}

// Completions fetches the tracker's recently completed work items.
func (c *Client) Completions(ctx context.Context) ([]CompletionEvent, error) {
	path := url.URL{
		Scheme: "http",
		Host:   c.trackerAddr,
		Path:   "/api/completions",
	}

	tCtx, cancel := context.WithTimeout(ctx, model.DefaultTimeout)
	defer cancel()
	request, err := http.NewRequestWithContext(
		tCtx, http.MethodGet, path.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create the request: %w", err)
	}
	resp, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to tracker: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log := logger.FromContext(ctx)
			log.LogAttrs(ctx,
				slog.LevelError,
				"failed to close the response body",
				slog.Any(model.KeyLoggerError, closeErr),
			)
		}
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to read the body: %w", err)
	}

	events, err := c.handleResponse(resp, body)
	if err == nil ||
		errors.Is(err, serviceerrs.ErrNoContent) ||
		errors.Is(err, &serviceerrs.TooManyRequestsError{}) {
		return events, err
	}

	return nil, fmt.Errorf("tracker request failed: %w", err)
}

func (c *Client) handleResponse(resp *http.Response, body []byte,
) ([]CompletionEvent, error) {
	switch resp.StatusCode {
	case http.StatusOK:
		if ct := resp.Header.Get(model.HeaderContentType); ct != "application/json" {
			return nil, fmt.Errorf("unexpected content type %s", ct)
		}
		var events []CompletionEvent
		if err := json.Unmarshal(body, &events); err != nil {
			return nil, fmt.Errorf("response decoding error: %w", err)
		}
		return events, nil
	case http.StatusNoContent:
		return nil, serviceerrs.ErrNoContent
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter == "" {
			return nil, errors.New("empty retry-after value")
		}
		ra, err := strconv.Atoi(retryAfter)
		if err != nil {
			return nil, fmt.Errorf("retry after atoi failed: %w", err)
		}
		return nil, &serviceerrs.TooManyRequestsError{
			RetryAfter: time.Duration(ra) * time.Second,
		}
	}

	return nil, fmt.Errorf("unexpected status: %d\nBody: %s",
		resp.StatusCode, string(body))
}
