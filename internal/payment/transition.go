package payment

import "github.com/mmynk/runpool/internal/models"

// Decision is the outcome of checking a status change against the
// transition table.
type Decision int

const (
	// Apply means the change is a valid forward transition.
	Apply Decision = iota

	// NoOp means the record is already in the target status.
	NoOp

	// Reject means the change would move the record backwards or sideways.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Apply:
		return "apply"
	case NoOp:
		return "noop"
	default:
		return "reject"
	}
}

// forward lists every allowed transition. A failed card can be retried on
// the same intent, so failed may still become paid.
var forward = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed},
	models.PaymentFailed:  {models.PaymentPaid},
	models.PaymentPaid:    {models.PaymentRefunded},
}

// Transition decides whether a record in status from may move to status to.
func Transition(from, to models.PaymentStatus) Decision {
	if from == to {
		return NoOp
	}
	for _, next := range forward[from] {
		if next == to {
			return Apply
		}
	}
	return Reject
}
