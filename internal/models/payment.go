package models

// PaymentStatus is the lifecycle state of an entry-fee payment.
type PaymentStatus string

const (
	// PaymentUnknown is returned for keys with no record. It is never stored.
	PaymentUnknown  PaymentStatus = "unknown"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentKey identifies one entry fee: a user, a group and a period.
type PaymentKey struct {
	UserID   string `db:"user_id"`
	GroupID  string `db:"group_id"`
	PeriodID string `db:"period_id"`
}

// Complete reports whether every part of the key is set.
func (k PaymentKey) Complete() bool {
	return k.UserID != "" && k.GroupID != "" && k.PeriodID != ""
}

// String renders the key for logs and lock names.
func (k PaymentKey) String() string {
	return k.UserID + "/" + k.GroupID + "/" + k.PeriodID
}

// PaymentRecord is the entry-fee state for one PaymentKey.
// Status only moves forward, driven by verified processor events.
type PaymentRecord struct {
	PaymentKey

	// Amount is in minor currency units.
	Amount   int64  `db:"amount"`
	Currency string `db:"currency"`

	Status PaymentStatus `db:"status"`

	// ProcessorRef is the processor's payment intent id, empty until created.
	ProcessorRef string `db:"processor_ref"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// ProcessedEvent records a processor event that reconciliation has handled.
type ProcessedEvent struct {
	EventID     string `db:"event_id"`
	Type        string `db:"event_type"`
	Outcome     string `db:"outcome"`
	ProcessedAt int64  `db:"processed_at"`
}
