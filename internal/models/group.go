package models

// Group represents one running challenge.
// It is owned by its creator and only the owner may change it.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `db:"id"`

	// Name is the display name of the group (e.g., "Tuesday Trail Crew").
	Name string `db:"name"`

	// Rules is the free-form rule description shown to members.
	Rules string `db:"rules"`

	// EntryFee is the weekly entry fee in minor currency units.
	// Zero means the group is free.
	EntryFee int64 `db:"entry_fee"`

	// Currency is the ISO 4217 code in lower case (e.g. "usd").
	Currency string `db:"currency"`

	// OwnerID is the user who created the group.
	OwnerID string `db:"owner_id"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `db:"created_at"`
}

// IsFree reports whether the group has no entry fee.
func (g *Group) IsFree() bool {
	return g.EntryFee <= 0
}

// GroupRef is the resolved target of an invite token.
type GroupRef struct {
	ID       string
	Name     string
	EntryFee int64
	Currency string
}

// Ref returns the group's reference form.
func (g *Group) Ref() GroupRef {
	return GroupRef{ID: g.ID, Name: g.Name, EntryFee: g.EntryFee, Currency: g.Currency}
}

// InviteToken grants join rights to exactly one group.
type InviteToken struct {
	Token   string `db:"token"`
	GroupID string `db:"group_id"`

	// CreatedBy is the owner who issued the token.
	CreatedBy string `db:"created_by"`

	IssuedAt int64 `db:"issued_at"`

	// ExpiresAt is zero for tokens that never expire.
	ExpiresAt int64 `db:"expires_at"`

	// SingleUse tokens resolve successfully for one user only.
	SingleUse bool `db:"single_use"`

	// ConsumedAt and ConsumedBy are set when a single-use token is used.
	ConsumedAt int64  `db:"consumed_at"`
	ConsumedBy string `db:"consumed_by"`

	// Uses counts successful resolutions of reusable tokens.
	Uses int64 `db:"uses"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *InviteToken) Expired(now int64) bool {
	return t.ExpiresAt != 0 && now >= t.ExpiresAt
}

// Consumed reports whether a single-use token has been used.
func (t *InviteToken) Consumed() bool {
	return t.ConsumedAt != 0
}

// Membership records that a user belongs to a group.
type Membership struct {
	UserID   string `db:"user_id"`
	GroupID  string `db:"group_id"`
	Active   bool   `db:"active"`
	JoinedAt int64  `db:"joined_at"`
}
