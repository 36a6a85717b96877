// Package invite issues and resolves group invite tokens.
package invite

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/metrics"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage"
)

var (
	// ErrInvalidToken covers empty, unknown and expired tokens.
	ErrInvalidToken = errors.New("this invite link is invalid or has expired")

	// ErrTokenConsumed is returned when a single-use token was already used
	// by someone else.
	ErrTokenConsumed = errors.New("this invite link has already been used")

	// ErrGroupNotFound is returned when the token's group no longer exists.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNotOwner is returned when a non-owner tries to issue a token.
	ErrNotOwner = errors.New("only the group owner can create invites")
)

// tokenBytes is the entropy of a generated token; 24 bytes encode to 32
// url-safe characters.
const tokenBytes = 24

// Store is the persistence the resolver needs.
type Store interface {
	storage.InviteStore
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
}

// IssueOptions controls a new token.
type IssueOptions struct {
	// TTL is how long the token stays valid; zero means no expiry.
	TTL time.Duration

	// Reusable tokens may be resolved by any number of users.
	Reusable bool
}

// Resolver validates invite tokens and resolves them to groups.
type Resolver struct {
	store Store
	now   func() time.Time
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Issue creates a new token for a group the caller owns.
func (r *Resolver) Issue(ctx context.Context, id *models.Identity, groupID string, opts IssueOptions) (*models.InviteToken, error) {
	if !id.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	group, err := r.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != id.UserID {
		return nil, ErrNotOwner
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := r.now().Unix()
	token := &models.InviteToken{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		GroupID:   group.ID,
		CreatedBy: id.UserID,
		IssuedAt:  now,
		SingleUse: !opts.Reusable,
	}
	if opts.TTL > 0 {
		token.ExpiresAt = r.now().Add(opts.TTL).Unix()
	}

	if err := r.store.CreateInviteToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store invite token: %w", err)
	}

	slog.Info("Invite token issued",
		"group_id", group.ID,
		"single_use", token.SingleUse,
		"expires_at", token.ExpiresAt,
	)
	return token, nil
}

// Peek looks up a valid token without consuming it.
func (r *Resolver) Peek(ctx context.Context, token string) (*models.InviteToken, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var t *models.InviteToken
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		t, err = r.store.GetInviteToken(ctx, token)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite token: %w", err)
	}
	if t.Expired(r.now().Unix()) {
		return nil, ErrInvalidToken
	}
	return t, nil
}

// Resolve validates token for the caller and returns the group it grants.
//
// A single-use token is consumed by the first caller; later callers get
// ErrTokenConsumed, except the consumer itself, for whom resolution stays
// successful so that a retried request does not fail.
func (r *Resolver) Resolve(ctx context.Context, id *models.Identity, token string) (ref models.GroupRef, err error) {
	defer func() { metrics.RecordInviteResolution(resolutionResult(err)) }()

	if !id.Valid() {
		return models.GroupRef{}, auth.ErrUnauthenticated
	}

	t, err := r.Peek(ctx, token)
	if err != nil {
		return models.GroupRef{}, err
	}

	if t.SingleUse {
		if err := r.consume(ctx, t, id.UserID); err != nil {
			return models.GroupRef{}, err
		}
	} else if err := r.store.IncrementInviteUses(ctx, t.Token); err != nil {
		// The counter is informational; the resolution still stands.
		slog.Warn("Failed to count invite use", "group_id", t.GroupID, "error", err)
	}

	group, err := r.getGroup(ctx, t.GroupID)
	if err != nil {
		return models.GroupRef{}, err
	}

	slog.Info("Invite token resolved", "group_id", group.ID, "user_id", id.UserID)
	return group.Ref(), nil
}

func (r *Resolver) consume(ctx context.Context, t *models.InviteToken, userID string) error {
	var won bool
	// The conditional update is idempotent, so transient failures may retry.
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		won, err = r.store.ConsumeInviteToken(ctx, t.Token, userID, r.now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to consume invite token: %w", err)
	}
	if won {
		return nil
	}

	// Lost the race or the token was used before; only its consumer may
	// resolve it again.
	current, err := r.store.GetInviteToken(ctx, t.Token)
	if err != nil {
		return fmt.Errorf("failed to reload invite token: %w", err)
	}
	if current.ConsumedBy == userID {
		return nil
	}
	return ErrTokenConsumed
}

func (r *Resolver) getGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var group *models.Group
	err := storage.Retry(ctx, storage.DefaultRetry, func() error {
		var err error
		group, err = r.store.GetGroup(ctx, groupID)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return group, nil
}

func resolutionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, auth.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrTokenConsumed):
		return "consumed"
	case errors.Is(err, ErrGroupNotFound):
		return "group_not_found"
	default:
		return "error"
	}
}
