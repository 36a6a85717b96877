package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/payment"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testSecret,
	})
	return sp.Payload, sp.Header
}

func eventJSON(id, typ, object string) string {
	return fmt.Sprintf(`{"id":%q,"object":"event","api_version":"2020-08-27","type":%q,"data":{"object":%s}}`, id, typ, object)
}

const intentObject = `{"id":"pi_123","object":"payment_intent","metadata":{"runpool_user_id":"u1","runpool_group_id":"g1","runpool_period_id":"2026-W42"}}`

func TestVerify(t *testing.T) {
	v, err := NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	key := models.PaymentKey{UserID: "u1", GroupID: "g1", PeriodID: "2026-W42"}

	tests := []struct {
		name    string
		payload string
		want    payment.Event
	}{
		{
			name:    "succeeded",
			payload: eventJSON("evt_1", "payment_intent.succeeded", intentObject),
			want:    payment.Event{ID: "evt_1", Type: "payment_intent.succeeded", Kind: payment.EventPaymentSucceeded, Key: key, ProcessorRef: "pi_123"},
		},
		{
			name:    "failed",
			payload: eventJSON("evt_2", "payment_intent.payment_failed", intentObject),
			want:    payment.Event{ID: "evt_2", Type: "payment_intent.payment_failed", Kind: payment.EventPaymentFailed, Key: key, ProcessorRef: "pi_123"},
		},
		{
			name:    "full refund",
			payload: eventJSON("evt_3", "charge.refunded", `{"id":"ch_1","object":"charge","refunded":true,"payment_intent":"pi_123"}`),
			want:    payment.Event{ID: "evt_3", Type: "charge.refunded", Kind: payment.EventPaymentRefunded, ProcessorRef: "pi_123"},
		},
		{
			name:    "partial refund",
			payload: eventJSON("evt_4", "charge.refunded", `{"id":"ch_1","object":"charge","refunded":false,"payment_intent":"pi_123"}`),
			want:    payment.Event{ID: "evt_4", Type: "charge.refunded", Kind: payment.EventIgnored},
		},
		{
			name:    "account updated",
			payload: eventJSON("evt_5", "account.updated", `{"id":"acct_9","object":"account","payouts_enabled":true}`),
			want:    payment.Event{ID: "evt_5", Type: "account.updated", Kind: payment.EventAccountUpdated, AccountID: "acct_9", PayoutsEnabled: true},
		},
		{
			name:    "unhandled type",
			payload: eventJSON("evt_6", "customer.created", `{"id":"cus_1","object":"customer"}`),
			want:    payment.Event{ID: "evt_6", Type: "customer.created", Kind: payment.EventIgnored},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, header := signed(t, tt.payload)
			got, err := v.Verify(payload, header)
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if *got != tt.want {
				t.Errorf("Verify = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	v, _ := NewVerifier(testSecret)
	payload, header := signed(t, eventJSON("evt_1", "payment_intent.succeeded", intentObject))

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '

	tests := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"tampered body", tampered, header},
		{"missing header", payload, ""},
		{"garbage header", payload, "t=1,v1=deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.payload, tt.header); !errors.Is(err, payment.ErrInvalidSignature) {
				t.Errorf("error = %v, want ErrInvalidSignature", err)
			}
		})
	}

	other, _ := NewVerifier("whsec_other")
	if _, err := other.Verify(payload, header); !errors.Is(err, payment.ErrInvalidSignature) {
		t.Errorf("wrong secret error = %v, want ErrInvalidSignature", err)
	}
}

func TestMissingKeys(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, ErrMissingKey) {
		t.Errorf("NewVerifier error = %v, want ErrMissingKey", err)
	}
	if _, err := NewClient(Config{}); !errors.Is(err, ErrMissingKey) {
		t.Errorf("NewClient error = %v, want ErrMissingKey", err)
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		got = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc"}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{SecretKey: "sk_test_123", APIBase: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	key := models.PaymentKey{UserID: "u1", GroupID: "g1", PeriodID: "2026-W42"}
	intent, err := c.CreatePaymentIntent(context.Background(), payment.IntentRequest{
		Key:            key,
		Amount:         1500,
		Currency:       "usd",
		IdempotencyKey: "runpool-entry-u1-g1-2026-W42",
		Destination:    "acct_owner",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent failed: %v", err)
	}
	if intent.ID != "pi_123" || intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("intent = %+v", intent)
	}

	if got == nil {
		t.Fatal("no request reached the server")
	}
	if got.URL.Path != "/v1/payment_intents" {
		t.Errorf("path = %s", got.URL.Path)
	}
	if h := got.Header.Get("Idempotency-Key"); h != "runpool-entry-u1-g1-2026-W42" {
		t.Errorf("Idempotency-Key = %q", h)
	}
	form := map[string]string{
		"amount":                      "1500",
		"currency":                    "usd",
		"metadata[runpool_user_id]":   "u1",
		"metadata[runpool_period_id]": "2026-W42",
		"transfer_data[destination]":  "acct_owner",
	}
	for k, want := range form {
		if v := got.PostForm.Get(k); v != want {
			t.Errorf("form %s = %q, want %q", k, v, want)
		}
	}
}

func TestGetPaymentIntent(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc"}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{SecretKey: "sk_test_123", APIBase: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	intent, err := c.GetPaymentIntent(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("GetPaymentIntent failed: %v", err)
	}
	if intent.ID != "pi_123" || intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("intent = %+v", intent)
	}
	if method != http.MethodGet || path != "/v1/payment_intents/pi_123" {
		t.Errorf("request = %s %s, want GET /v1/payment_intents/pi_123", method, path)
	}
}
