package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkeep/rangs/internal/api/dto"
	"github.com/rangkeep/rangs/internal/audit"
	"github.com/rangkeep/rangs/internal/config"
	"github.com/rangkeep/rangs/internal/model/item"
	"github.com/rangkeep/rangs/internal/router"
	"github.com/rangkeep/rangs/internal/service"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage/memory"
	"github.com/rangkeep/rangs/internal/utils/auth"
)

const testSecret = "test-secret"

type stubCatalog struct {
	items map[string]item.Item
}

func (c *stubCatalog) Item(_ context.Context, itemID string) (*item.Item, error) {
	it, ok := c.items[itemID]
	if !ok {
		return nil, serviceerrs.ErrNotFound
	}
	return &it, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.Default()
	store := memory.New()
	sink := audit.NewSlogSink(log)
	catalog := &stubCatalog{items: map[string]item.Item{
		"mug": {ID: "mug", Name: "camp mug", Cost: 30, Available: true},
	}}

	h := New(
		service.NewAwardService(store, sink, log),
		service.NewRedemptionService(store, catalog, sink, log),
		service.NewBalanceService(store, log),
		nil,
		log,
	)

	cr := router.New(&config.Config{SecretKey: testSecret}, log)
	cr.SetRouter(h)

	srv := httptest.NewServer(cr.GetRouter())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server,
	method, path, token, body string,
) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func mintToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.BuildJWTString(userID, []byte(testSecret))
	require.NoError(t, err)
	return token
}

func completionBody(taskID string, importance int, category string) string {
	body, _ := json.Marshal(dto.CompletionRequest{
		TaskID:      taskID,
		Title:       "some task",
		Category:    category,
		Importance:  importance,
		CompletedAt: time.Now(),
	})
	return string(body)
}

func TestPostCompletion(t *testing.T) {
	srv := newTestServer(t)
	token := mintToken(t, "user-1")

	resp := doJSON(t, srv, http.MethodPost, "/api/events/completion",
		token, completionBody("task-1", 10, "exam"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var award dto.AwardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&award))
	assert.True(t, award.Awarded)
	assert.Equal(t, int64(40), award.Amount)
	assert.Equal(t, int64(40), award.Balance)

	// duplicate event -> conflict, no second entry
	resp = doJSON(t, srv, http.MethodPost, "/api/events/completion",
		token, completionBody("task-1", 10, "exam"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPostCompletion_PastDue(t *testing.T) {
	srv := newTestServer(t)
	token := mintToken(t, "user-1")

	due := time.Now().Add(-time.Hour)
	body, _ := json.Marshal(dto.CompletionRequest{
		TaskID:      "task-late",
		Title:       "late task",
		Category:    "work",
		Importance:  5,
		DueDate:     &due,
		CompletedAt: time.Now(),
	})

	resp := doJSON(t, srv, http.MethodPost, "/api/events/completion",
		token, string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var award dto.AwardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&award))
	assert.False(t, award.Awarded)
}

func TestPostCompletion_Validation(t *testing.T) {
	srv := newTestServer(t)
	token := mintToken(t, "user-1")

	resp := doJSON(t, srv, http.MethodPost, "/api/events/completion",
		token, completionBody("", 5, "work"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/events/completion",
		token, completionBody("task-1", 0, "work"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRedeem_FullFlow(t *testing.T) {
	srv := newTestServer(t)
	token := mintToken(t, "user-1")

	// two exams at importance 10 -> balance 80
	for _, taskID := range []string{"task-1", "task-2"} {
		resp := doJSON(t, srv, http.MethodPost, "/api/events/completion",
			token, completionBody(taskID, 10, "exam"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, srv, http.MethodPost, "/api/user/redemptions",
		token, `{"item_id":"mug","idempotency_key":"key-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var redeemed dto.RedeemResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&redeemed))
	assert.Equal(t, int64(50), redeemed.NewBalance)

	resp = doJSON(t, srv, http.MethodGet, "/api/user/balance", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance dto.BalanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&balance))
	assert.Equal(t, int64(50), balance.Balance)

	resp = doJSON(t, srv, http.MethodGet, "/api/user/ledger", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []dto.EntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Len(t, entries, 3)

	resp = doJSON(t, srv, http.MethodGet, "/api/user/purchases", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var purchases []dto.PurchaseResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&purchases))
	require.Len(t, purchases, 1)
	assert.Equal(t, "mug", purchases[0].ItemID)
}

func TestRedeem_Rejections(t *testing.T) {
	srv := newTestServer(t)
	token := mintToken(t, "user-1")

	resp := doJSON(t, srv, http.MethodPost, "/api/events/completion",
		token, completionBody("task-1", 10, "exam"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "unknown item",
			body:       `{"item_id":"no-such-item","idempotency_key":"key-1"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing idempotency key",
			body:       `{"item_id":"mug"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"item_id":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, srv, http.MethodPost, "/api/user/redemptions",
				token, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	// drain the balance, then hit insufficient funds
	resp = doJSON(t, srv, http.MethodPost, "/api/user/redemptions",
		token, `{"item_id":"mug","idempotency_key":"key-2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/user/redemptions",
		token, `{"item_id":"mug","idempotency_key":"key-3"}`)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	// replayed key -> conflict
	resp = doJSON(t, srv, http.MethodPost, "/api/user/redemptions",
		token, `{"item_id":"mug","idempotency_key":"key-2"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/user/balance", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	badToken, err := auth.BuildJWTString("user-1", []byte("wrong-secret"))
	require.NoError(t, err)
	resp = doJSON(t, srv, http.MethodGet, "/api/user/balance", badToken, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEmptyHistories(t *testing.T) {
	srv := newTestServer(t)
	token := mintToken(t, "user-1")

	resp := doJSON(t, srv, http.MethodGet, "/api/user/ledger", token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/api/user/purchases", token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
