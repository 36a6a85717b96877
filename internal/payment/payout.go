package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/models"
)

// StartPayoutOnboarding creates the caller's connected account on first use
// and returns a hosted onboarding link for it.
func (t *Tracker) StartPayoutOnboarding(ctx context.Context, id *models.Identity, returnURL, refreshURL string) (string, error) {
	if !id.Valid() {
		return "", auth.ErrUnauthenticated
	}
	if t.processor == nil {
		return "", ErrNotConfigured
	}

	unlock, err := t.locks.Lock(ctx, "payout/"+id.UserID)
	if err != nil {
		return "", err
	}
	defer unlock()

	user, err := t.store.GetUserByID(ctx, id.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	accountID := user.PayoutAccountID
	if accountID == "" {
		accountID, err = t.processor.CreateConnectedAccount(ctx, user.ID, user.Email)
		if err != nil {
			return "", fmt.Errorf("failed to create payout account: %w", err)
		}
		if err := t.store.SetPayoutAccount(ctx, user.ID, accountID); err != nil {
			return "", fmt.Errorf("failed to store payout account: %w", err)
		}
		slog.Info("Payout account created", "user_id", user.ID, "account_id", accountID)
	}

	link, err := t.processor.OnboardingLink(ctx, accountID, returnURL, refreshURL)
	if err != nil {
		return "", fmt.Errorf("failed to create onboarding link: %w", err)
	}
	return link, nil
}
