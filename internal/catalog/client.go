// Package catalog talks to the external item catalog service.
package catalog

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
	"github.com/rangkeep/rangs/internal/model/item"
	"github.com/rangkeep/rangs/internal/serviceerrs"
)

type Client struct {
	client      http.Client
	catalogAddr string
}

func New(catalogAddr string) *Client {
	return &Client{
		client:      http.Client{},
		catalogAddr: catalogAddr,
	}
}

func (c *Client) Item(ctx context.Context, itemID string) (*item.Item, error) {
	path := url.URL{
		Scheme: "http",
		Host:   c.catalogAddr,
		Path:   "/api/items/" + itemID,
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
		return nil, fmt.Errorf("failed to send request to catalog: %w", err)
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

	it, err := c.handleResponse(resp, body)
	if err == nil ||
		errors.Is(err, serviceerrs.ErrNotFound) ||
		errors.Is(err, &serviceerrs.TooManyRequestsError{}) {
		return it, err
	}

	return nil, fmt.Errorf("catalog request failed: %w", err)
}

func (c *Client) handleResponse(resp *http.Response, body []byte) (*item.Item, error) {
	switch resp.StatusCode {
	case http.StatusOK:
		if ct := resp.Header.Get(model.HeaderContentType); ct != "application/json" {
			return nil, fmt.Errorf("unexpected content type %s", ct)
		}
		it := item.Item{}
		if err := json.Unmarshal(body, &it); err != nil {
			return nil, fmt.Errorf("response decoding error: %w", err)
		}
		return &it, nil
	case http.StatusNotFound, http.StatusNoContent:
		return nil, serviceerrs.ErrNotFound
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
	case http.StatusInternalServerError:
		return nil, fmt.Errorf("catalog service error\nBody: %s", string(body))
	}

	return nil, fmt.Errorf("unexpected status: %d\nBody: %s",
		resp.StatusCode, string(body))
}
