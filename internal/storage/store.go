// Package storage provides abstractions for persistent data storage.
//
// The store is the one place where RunPool's concurrency guarantees live:
// single-use invite tokens are consumed with a conditional update,
// memberships rely on a uniqueness constraint, and payment status moves by
// compare-and-set. Implementations must provide those semantics.
package storage

import (
	"context"

	"github.com/mmynk/runpool/internal/models"
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// SetPayoutAccount stores the processor's connected account id.
	SetPayoutAccount(ctx context.Context, userID, accountID string) error

	// SetPayoutsEnabled updates the payouts flag of the user owning accountID.
	// Returns ErrNotFound if no user owns the account.
	SetPayoutsEnabled(ctx context.Context, accountID string, enabled bool) error
}

// GroupStore persists challenge groups.
type GroupStore interface {
	// CreateGroup inserts the group and the owner's membership atomically.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroup overwrites name, rules and entry fee.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// ListGroupsForUser returns the groups the user is an active member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
}

// InviteStore persists invite tokens.
type InviteStore interface {
	CreateInviteToken(ctx context.Context, token *models.InviteToken) error

	// GetInviteToken returns ErrNotFound for unknown tokens.
	GetInviteToken(ctx context.Context, token string) (*models.InviteToken, error)

	// ConsumeInviteToken marks a single-use token consumed by userID if and
	// only if it is not consumed yet. It reports whether this call won.
	ConsumeInviteToken(ctx context.Context, token, userID string, now int64) (bool, error)

	// IncrementInviteUses bumps the use counter of a reusable token.
	IncrementInviteUses(ctx context.Context, token string) error
}

// MembershipStore persists group memberships.
type MembershipStore interface {
	// CreateMembership inserts a membership. Returns ErrConflict if the
	// (user, group) pair already exists.
	CreateMembership(ctx context.Context, membership *models.Membership) error

	// GetMembership returns ErrNotFound if the pair has no membership.
	GetMembership(ctx context.Context, userID, groupID string) (*models.Membership, error)

	// SetMembershipActive flips the active flag of an existing membership.
	SetMembershipActive(ctx context.Context, userID, groupID string, active bool) error
}

// PaymentStore persists entry-fee payment state and processed events.
type PaymentStore interface {
	// InsertPaymentIfAbsent inserts the record unless one exists for its key.
	// It reports whether a row was inserted.
	InsertPaymentIfAbsent(ctx context.Context, record *models.PaymentRecord) (bool, error)

	// GetPayment returns ErrNotFound if the key has no record.
	GetPayment(ctx context.Context, key models.PaymentKey) (*models.PaymentRecord, error)

	// GetPaymentByProcessorRef returns ErrNotFound for unknown references.
	GetPaymentByProcessorRef(ctx context.Context, ref string) (*models.PaymentRecord, error)

	// SetPaymentProcessorRef stores ref if the record has none yet and
	// reports whether it did.
	SetPaymentProcessorRef(ctx context.Context, key models.PaymentKey, ref string) (bool, error)

	// CompareAndSetPaymentStatus moves the record from one status to another
	// and reports whether the record was still in the from status.
	CompareAndSetPaymentStatus(ctx context.Context, key models.PaymentKey, from, to models.PaymentStatus, now int64) (bool, error)

	// ListGroupPayments returns every record of a group for a period.
	ListGroupPayments(ctx context.Context, groupID, periodID string) ([]*models.PaymentRecord, error)

	// HasProcessedEvent reports whether the processor event was handled.
	HasProcessedEvent(ctx context.Context, eventID string) (bool, error)

	// RecordProcessedEvent stores the event. Recording twice is not an error.
	RecordProcessedEvent(ctx context.Context, event *models.ProcessedEvent) error
}

// ActivityWindow selects active memberships by how many activities the
// member logged in [From, To).
type ActivityWindow struct {
	From int64
	To   int64

	// Min is the inclusive lower bound on the count.
	Min int64

	// Max is the inclusive upper bound; negative means unbounded.
	Max int64
}

// ActivityStore persists logged activities.
type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error

	// GroupActivity aggregates [from, to) activities of every active member
	// of the group, including members with none.
	GroupActivity(ctx context.Context, groupID string, from, to int64) ([]models.MemberActivity, error)
}

// CampaignStore persists campaign send records and answers the
// eligibility queries behind campaign predicates.
type CampaignStore interface {
	// HasSendRecord reports whether the campaign already reached the user
	// for the period.
	HasSendRecord(ctx context.Context, userID, campaignType, periodID string) (bool, error)

	// CreateSendRecord returns ErrConflict if the triple already exists.
	CreateSendRecord(ctx context.Context, record *models.CampaignSendRecord) error

	// PendingPaymentRecipients returns members with a pending payment for
	// the period that was created at or before createdBefore.
	PendingPaymentRecipients(ctx context.Context, periodID string, createdBefore int64) ([]models.Recipient, error)

	// WindowRecipients returns active members, one row per (user, group),
	// whose activity count in the window lies within its bounds.
	WindowRecipients(ctx context.Context, window ActivityWindow) ([]models.Recipient, error)
}

// Store is the complete persistence boundary used by the server.
type Store interface {
	UserStore
	GroupStore
	InviteStore
	MembershipStore
	PaymentStore
	ActivityStore
	CampaignStore

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
