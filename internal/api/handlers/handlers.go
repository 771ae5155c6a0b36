package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rangkeep/rangs/internal/api/dto"
	"github.com/rangkeep/rangs/internal/api/middlewares"
	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/service"
	"github.com/rangkeep/rangs/internal/serviceerrs"
)

type HTTPHandler struct {
	awards      *service.AwardService
	redemptions *service.RedemptionService
	balances    *service.BalanceService
	ping        func(context.Context) error
	log         *slog.Logger
}

func New(
	awards *service.AwardService,
	redemptions *service.RedemptionService,
	balances *service.BalanceService,
	ping func(context.Context) error,
	log *slog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		awards:      awards,
		redemptions: redemptions,
		balances:    balances,
		ping:        ping,
		log:         log,
	}
}

func (h *HTTPHandler) PostCompletion(w http.ResponseWriter, r *http.Request) {
	var req dto.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := req.IsValid(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := middlewares.UserID(r.Context())
	res, err := h.awards.HandleCompletion(r.Context(), userID, req.ToTask())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := dto.AwardResponse{Awarded: res.Awarded}
	if res.Awarded {
		resp.Amount = res.Amount.Int64()
		resp.Balance = res.Balance.Int64()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *HTTPHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req dto.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := req.IsValid(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := middlewares.UserID(r.Context())
	redemption, err := h.redemptions.Redeem(
		r.Context(), userID, req.ItemID, req.IdempotencyKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK,
		dto.RedeemResponse{NewBalance: redemption.NewBalance.Int64()})
}

func (h *HTTPHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.UserID(r.Context())
	balance, err := h.balances.Balance(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, dto.BalanceResponse{Balance: balance.Int64()})
}

func (h *HTTPHandler) RebuildBalance(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.UserID(r.Context())
	balance, err := h.balances.Rebuild(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, dto.BalanceResponse{Balance: balance.Int64()})
}

func (h *HTTPHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.UserID(r.Context())
	entries, err := h.balances.ListEntries(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		resp[i] = dto.NewEntryResponse(&entries[i])
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *HTTPHandler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.UserID(r.Context())
	purchases, err := h.balances.ListPurchases(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(purchases) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]dto.PurchaseResponse, len(purchases))
	for i := range purchases {
		resp[i] = dto.NewPurchaseResponse(&purchases[i])
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *HTTPHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			http.Error(w,
				http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *serviceerrs.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, serviceerrs.ErrNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, serviceerrs.ErrInsufficientFunds):
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	case errors.Is(err, serviceerrs.ErrConflict):
		http.Error(w, "duplicate source reference", http.StatusConflict)
	default:
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"request failed",
			slog.Any(model.KeyLoggerError, err),
		)
		http.Error(w,
			http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	}
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, r *http.Request,
	status int, payload any,
) {
	w.Header().Set(model.HeaderContentType, "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.LogAttrs(r.Context(),
			slog.LevelError,
			"failed to encode response",
			slog.Any(model.KeyLoggerError, err),
		)
	}
}
