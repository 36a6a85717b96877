package service

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mmynk/runpool/internal/invite"
	"github.com/mmynk/runpool/internal/middleware"
	"github.com/mmynk/runpool/internal/payment"
	"github.com/mmynk/runpool/internal/storage"
)

// maxWebhookBytes caps webhook bodies; processor events are far smaller.
const maxWebhookBytes = 1 << 20

// WebhookHandler receives processor webhook deliveries and hands them to
// the tracker. Deliveries answered with a non-2xx status are retried by
// the processor.
func WebhookHandler(tracker *payment.Tracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		err = tracker.Reconcile(r.Context(), payload, r.Header.Get("Stripe-Signature"))
		switch {
		case err == nil:
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, payment.ErrNotConfigured):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, payment.ErrInvalidSignature), errors.Is(err, payment.ErrMalformedEvent):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("Webhook processing failed", "error", err)
			http.Error(w, "processing failed", http.StatusInternalServerError)
		}
	})
}

// JoinHandler serves invite links. Anonymous visitors are sent to sign in
// and come back to the same link afterwards. Install it behind
// middleware.Session.
func JoinHandler(groups *GroupService, signinURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := middleware.IdentityFrom(r.Context())
		if !id.Valid() {
			target := signinURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		group, _, err := groups.Join(r.Context(), id, r.URL.Query().Get("token"))
		if err != nil {
			writeJoinError(w, err)
			return
		}
		http.Redirect(w, r, "/groups/"+url.PathEscape(group.ID), http.StatusSeeOther)
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJoinError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Code: "internal", Message: "something went wrong"}
	switch {
	case errors.Is(err, invite.ErrInvalidToken):
		status, body = http.StatusBadRequest, errorBody{Code: "invalid_token", Message: err.Error()}
	case errors.Is(err, invite.ErrTokenConsumed):
		status, body = http.StatusGone, errorBody{Code: "token_consumed", Message: err.Error()}
	case errors.Is(err, invite.ErrGroupNotFound), errors.Is(err, storage.ErrNotFound):
		status, body = http.StatusNotFound, errorBody{Code: "group_not_found", Message: err.Error()}
	case errors.Is(err, storage.ErrTransient):
		status, body = http.StatusServiceUnavailable, errorBody{Code: "unavailable", Message: "try again shortly"}
	default:
		slog.Error("Invite link failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write error body", "error", err)
	}
}
