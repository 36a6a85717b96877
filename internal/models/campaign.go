package models

// CampaignSendRecord marks that a campaign message reached a user for a
// period. At most one exists per (UserID, CampaignType, PeriodID).
type CampaignSendRecord struct {
	UserID       string `db:"user_id"`
	CampaignType string `db:"campaign_type"`
	PeriodID     string `db:"period_id"`
	MessageID    string `db:"message_id"`
	SentAt       int64  `db:"sent_at"`
}

// Recipient is one user selected by a campaign's eligibility predicate.
type Recipient struct {
	UserID      string `db:"user_id"`
	Email       string `db:"email"`
	DisplayName string `db:"display_name"`
	GroupID     string `db:"group_id"`
	GroupName   string `db:"group_name"`

	// Amount is the pending entry fee for payment reminders, zero otherwise.
	Amount   int64  `db:"amount"`
	Currency string `db:"currency"`

	// Activities is the activity count the predicate looked at.
	Activities int64 `db:"activities"`
}
