package payment

import (
	"context"
	"errors"

	"github.com/mmynk/runpool/internal/models"
)

var (
	// ErrInvalidSignature is returned when a webhook payload fails
	// verification. Nothing is applied.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned for verified payloads that cannot be
	// decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// EventKind is what a processor event means to RunPool.
type EventKind string

const (
	EventPaymentSucceeded  EventKind = "payment_succeeded"
	EventPaymentFailed     EventKind = "payment_failed"
	EventPaymentProcessing EventKind = "payment_processing"
	EventPaymentRefunded   EventKind = "payment_refunded"
	EventAccountUpdated    EventKind = "account_updated"

	// EventIgnored covers every event type RunPool does not act on.
	EventIgnored EventKind = "ignored"
)

// target returns the payment status the event drives a record to.
func (k EventKind) target() (models.PaymentStatus, bool) {
	switch k {
	case EventPaymentSucceeded:
		return models.PaymentPaid, true
	case EventPaymentFailed:
		return models.PaymentFailed, true
	case EventPaymentProcessing:
		return models.PaymentPending, true
	case EventPaymentRefunded:
		return models.PaymentRefunded, true
	}
	return "", false
}

// Event is a verified processor notification.
type Event struct {
	// ID is the processor's event id, used for replay detection.
	ID string

	// Type is the processor's raw event type.
	Type string

	Kind EventKind

	// Key comes from the intent metadata. It may be incomplete, e.g. for
	// refunds, in which case ProcessorRef locates the record.
	Key models.PaymentKey

	// ProcessorRef is the payment intent id the event is about.
	ProcessorRef string

	// AccountID and PayoutsEnabled are set for account updates.
	AccountID      string
	PayoutsEnabled bool
}

// Verifier authenticates and decodes webhook deliveries. Failures must wrap
// ErrInvalidSignature or ErrMalformedEvent.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (*Event, error)
}

// IntentRequest describes a payment intent to create.
type IntentRequest struct {
	Key      models.PaymentKey
	Amount   int64
	Currency string

	// IdempotencyKey makes repeated creation return the same intent.
	IdempotencyKey string

	// Destination is the connected account receiving the funds, if any.
	Destination string

	ReceiptEmail string
}

// Intent is a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// Processor is the outbound side of the payment processor.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)

	// GetPaymentIntent returns an intent created earlier.
	GetPaymentIntent(ctx context.Context, id string) (*Intent, error)

	// CreateConnectedAccount creates a payout account for a user.
	CreateConnectedAccount(ctx context.Context, userID, email string) (string, error)

	// OnboardingLink returns a hosted onboarding URL for the account.
	OnboardingLink(ctx context.Context, accountID, returnURL, refreshURL string) (string, error)
}
