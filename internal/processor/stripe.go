// Package processor adapts Stripe to the payment tracker's Processor and
// Verifier interfaces.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/payment"
)

// Metadata keys carrying the payment key on every intent.
const (
	MetaUserID   = "runpool_user_id"
	MetaGroupID  = "runpool_group_id"
	MetaPeriodID = "runpool_period_id"
)

// ErrMissingKey is returned when a required Stripe secret is empty.
var ErrMissingKey = errors.New("stripe key is required")

// Config holds the Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string

	// APIBase overrides the API URL, e.g. for stripe-mock. Empty uses Stripe.
	APIBase string
}

// Client creates payment intents and connected accounts.
type Client struct {
	api *client.API
}

// NewClient creates a Stripe API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingKey
	}

	var backends *stripe.Backends
	if cfg.APIBase != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.APIBase),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &Client{api: api}, nil
}

// CreatePaymentIntent creates, or with the same idempotency key returns,
// the intent for one entry fee.
func (c *Client) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata(MetaUserID, req.Key.UserID)
	params.AddMetadata(MetaGroupID, req.Key.GroupID)
	params.AddMetadata(MetaPeriodID, req.Key.PeriodID)
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.Destination != "" {
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.Destination),
		}
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &payment.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// GetPaymentIntent fetches an existing intent.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return &payment.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CreateConnectedAccount creates an Express account able to receive
// transfers.
func (c *Client) CreateConnectedAccount(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey("runpool-account-" + userID)
	params.AddMetadata(MetaUserID, userID)

	acct, err := c.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create account: %w", err)
	}
	return acct.ID, nil
}

// OnboardingLink creates a hosted onboarding link for the account.
func (c *Client) OnboardingLink(ctx context.Context, accountID, returnURL, refreshURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		ReturnURL:  stripe.String(returnURL),
		RefreshURL: stripe.String(refreshURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := c.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create account link: %w", err)
	}
	return link.URL, nil
}

// Verifier checks Stripe-Signature headers and maps Stripe events.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier for the endpoint's signing secret.
func NewVerifier(webhookSecret string) (*Verifier, error) {
	if webhookSecret == "" {
		return nil, ErrMissingKey
	}
	return &Verifier{secret: webhookSecret}, nil
}

// Verify authenticates the payload and translates the event.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (*payment.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}
	if event.ID == "" || event.Data == nil {
		return nil, fmt.Errorf("%w: event without id or data", payment.ErrMalformedEvent)
	}
	return translate(&event)
}

func translate(event *stripe.Event) (*payment.Event, error) {
	ev := &payment.Event{ID: event.ID, Type: string(event.Type), Kind: payment.EventIgnored}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.processing":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		ev.Kind = intentKinds[string(event.Type)]
		ev.ProcessorRef = pi.ID
		ev.Key = keyFromMetadata(pi.Metadata)

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		// Partial refunds leave the entry paid.
		if !ch.Refunded {
			return ev, nil
		}
		ev.Kind = payment.EventPaymentRefunded
		if ch.PaymentIntent != nil {
			ev.ProcessorRef = ch.PaymentIntent.ID
		}
		ev.Key = keyFromMetadata(ch.Metadata)

	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("%w: %v", payment.ErrMalformedEvent, err)
		}
		ev.Kind = payment.EventAccountUpdated
		ev.AccountID = acct.ID
		ev.PayoutsEnabled = acct.PayoutsEnabled

	default:
		slog.Debug("Ignoring stripe event", "event_id", event.ID, "type", event.Type)
	}
	return ev, nil
}

var intentKinds = map[string]payment.EventKind{
	"payment_intent.succeeded":      payment.EventPaymentSucceeded,
	"payment_intent.payment_failed": payment.EventPaymentFailed,
	"payment_intent.processing":     payment.EventPaymentProcessing,
}

func keyFromMetadata(md map[string]string) models.PaymentKey {
	return models.PaymentKey{
		UserID:   md[MetaUserID],
		GroupID:  md[MetaGroupID],
		PeriodID: md[MetaPeriodID],
	}
}
