package campaign

import (
	"context"
	"time"

	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/period"
	"github.com/mmynk/runpool/internal/storage"
)

// Predicate selects the recipients of a campaign for a period. It must
// only read; the dispatcher handles deduplication and send records.
type Predicate func(ctx context.Context, store storage.CampaignStore, params Params, p period.ID, now time.Time) ([]models.Recipient, error)

var predicates = map[string]Predicate{
	"payment_reminder":  paymentReminder,
	"comeback_nudge":    comebackNudge,
	"streak_reminder":   streakReminder,
	"achievement_nudge": achievementNudge,
}

// paymentReminder selects members whose entry fee has been pending for
// longer than the grace period.
func paymentReminder(ctx context.Context, store storage.CampaignStore, params Params, p period.ID, now time.Time) ([]models.Recipient, error) {
	cutoff := now.Add(-time.Duration(params.GraceHours) * time.Hour)
	return store.PendingPaymentRecipients(ctx, p.String(), cutoff.Unix())
}

// comebackNudge selects members with no activity in the last InactiveDays
// before the end of the period, or before now for the current period.
func comebackNudge(ctx context.Context, store storage.CampaignStore, params Params, p period.ID, now time.Time) ([]models.Recipient, error) {
	to := p.End()
	if now.Before(to) {
		to = now
	}
	from := to.AddDate(0, 0, -params.InactiveDays)
	return store.WindowRecipients(ctx, storage.ActivityWindow{From: from.Unix(), To: to.Unix(), Min: 0, Max: 0})
}

// streakReminder selects members active in the previous period with
// nothing logged in this one.
func streakReminder(ctx context.Context, store storage.CampaignStore, _ Params, p period.ID, _ time.Time) ([]models.Recipient, error) {
	prevFrom, prevTo := p.Previous().Bounds()
	active, err := store.WindowRecipients(ctx, storage.ActivityWindow{From: prevFrom, To: prevTo, Min: 1, Max: -1})
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}

	from, to := p.Bounds()
	idle, err := store.WindowRecipients(ctx, storage.ActivityWindow{From: from, To: to, Min: 0, Max: 0})
	if err != nil {
		return nil, err
	}

	type membership struct{ user, group string }
	idleSet := make(map[membership]bool, len(idle))
	for _, r := range idle {
		idleSet[membership{r.UserID, r.GroupID}] = true
	}

	var out []models.Recipient
	for _, r := range active {
		if idleSet[membership{r.UserID, r.GroupID}] {
			out = append(out, r)
		}
	}
	return out, nil
}

// achievementNudge selects members with at least MinActivities this period.
func achievementNudge(ctx context.Context, store storage.CampaignStore, params Params, p period.ID, _ time.Time) ([]models.Recipient, error) {
	from, to := p.Bounds()
	return store.WindowRecipients(ctx, storage.ActivityWindow{
		From: from,
		To:   to,
		Min:  int64(params.MinActivities),
		Max:  -1,
	})
}
