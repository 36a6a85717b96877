package invite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/storage/sqldb"
)

type fixture struct {
	store    *sqldb.Store
	resolver *Resolver
	owner    *models.Identity
	group    *models.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqldb.Open(ctx, sqldb.DriverSQLite, filepath.Join(t.TempDir(), "invite.db"), sqldb.Options{})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	owner := mustIdentity(t, store, "owner@example.com")
	group := &models.Group{Name: "Tuesday Trail Crew", EntryFee: 500, OwnerID: owner.UserID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	return &fixture{store: store, resolver: NewResolver(store), owner: owner, group: group}
}

func mustIdentity(t *testing.T, store *sqldb.Store, email string) *models.Identity {
	t.Helper()
	user := models.NewUser(email, email, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return &models.Identity{UserID: user.ID, Email: user.Email}
}

// putToken stores a token with a fixed value.
func (f *fixture) putToken(t *testing.T, value string, singleUse bool, expiresAt int64) {
	t.Helper()
	err := f.store.CreateInviteToken(context.Background(), &models.InviteToken{
		Token:     value,
		GroupID:   f.group.ID,
		CreatedBy: f.owner.UserID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt,
		SingleUse: singleUse,
	})
	if err != nil {
		t.Fatalf("CreateInviteToken failed: %v", err)
	}
}

func TestResolveSingleUseToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putToken(t, "abc123", true, 0)

	u1 := mustIdentity(t, f.store, "u1@example.com")
	u2 := mustIdentity(t, f.store, "u2@example.com")

	ref, err := f.resolver.Resolve(ctx, u1, "abc123")
	if err != nil {
		t.Fatalf("Resolve(U1) failed: %v", err)
	}
	if ref.ID != f.group.ID || ref.Name != "Tuesday Trail Crew" || ref.EntryFee != 500 {
		t.Errorf("Resolve(U1) = %+v, want group %s", ref, f.group.ID)
	}

	if _, err := f.resolver.Resolve(ctx, u2, "abc123"); !errors.Is(err, ErrTokenConsumed) {
		t.Errorf("Resolve(U2) error = %v, want ErrTokenConsumed", err)
	}

	// Retried request from the consumer still resolves.
	if _, err := f.resolver.Resolve(ctx, u1, "abc123"); err != nil {
		t.Errorf("Resolve(U1) retry failed: %v", err)
	}
}

func TestResolveErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.putToken(t, "expired", true, now.Add(-time.Minute).Unix())
	f.putToken(t, "fresh", true, now.Add(time.Hour).Unix())

	user := mustIdentity(t, f.store, "runner@example.com")

	tests := []struct {
		name    string
		id      *models.Identity
		token   string
		wantErr error
	}{
		{"nil identity", nil, "fresh", auth.ErrUnauthenticated},
		{"empty identity", &models.Identity{}, "fresh", auth.ErrUnauthenticated},
		{"empty token", user, "", ErrInvalidToken},
		{"unknown token", user, "does-not-exist", ErrInvalidToken},
		{"expired token", user, "expired", ErrInvalidToken},
		{"valid token", user, "fresh", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.resolver.Resolve(ctx, tt.id, tt.token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Resolve failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveConcurrently(t *testing.T) {
	f := newFixture(t)
	f.putToken(t, "race", true, 0)

	const callers = 8
	ids := make([]*models.Identity, callers)
	for i := range ids {
		ids[i] = mustIdentity(t, f.store, fmt.Sprintf("racer%d@example.com", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		consumed  int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id *models.Identity) {
			defer wg.Done()
			_, err := f.resolver.Resolve(context.Background(), id, "race")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrTokenConsumed):
				consumed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if successes != 1 || consumed != callers-1 {
		t.Errorf("successes = %d, consumed = %d, want 1 and %d", successes, consumed, callers-1)
	}
}

func TestIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := mustIdentity(t, f.store, "stranger@example.com")

	t.Run("owner issues a single-use token", func(t *testing.T) {
		token, err := f.resolver.Issue(ctx, f.owner, f.group.ID, IssueOptions{})
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if len(token.Token) != 32 {
			t.Errorf("token length = %d, want 32", len(token.Token))
		}
		if !token.SingleUse || token.ExpiresAt != 0 {
			t.Errorf("token = %+v, want single-use without expiry", token)
		}
		if _, err := f.resolver.Resolve(ctx, stranger, token.Token); err != nil {
			t.Errorf("Resolve of issued token failed: %v", err)
		}
	})

	t.Run("reusable tokens resolve for everyone", func(t *testing.T) {
		token, err := f.resolver.Issue(ctx, f.owner, f.group.ID, IssueOptions{Reusable: true, TTL: time.Hour})
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		for i := 0; i < 3; i++ {
			id := mustIdentity(t, f.store, fmt.Sprintf("reuse%d@example.com", i))
			if _, err := f.resolver.Resolve(ctx, id, token.Token); err != nil {
				t.Fatalf("Resolve #%d failed: %v", i, err)
			}
		}
		stored, err := f.store.GetInviteToken(ctx, token.Token)
		if err != nil {
			t.Fatalf("GetInviteToken failed: %v", err)
		}
		if stored.Uses != 3 {
			t.Errorf("uses = %d, want 3", stored.Uses)
		}
	})

	t.Run("ttl expires the token", func(t *testing.T) {
		token, err := f.resolver.Issue(ctx, f.owner, f.group.ID, IssueOptions{TTL: time.Minute})
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		later := NewResolver(f.store).WithClock(func() time.Time { return time.Now().Add(time.Hour) })
		if _, err := later.Resolve(ctx, stranger, token.Token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Resolve after expiry error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		if _, err := f.resolver.Issue(ctx, stranger, f.group.ID, IssueOptions{}); !errors.Is(err, ErrNotOwner) {
			t.Errorf("Issue error = %v, want ErrNotOwner", err)
		}
	})

	t.Run("unknown group", func(t *testing.T) {
		if _, err := f.resolver.Issue(ctx, f.owner, "missing", IssueOptions{}); !errors.Is(err, ErrGroupNotFound) {
			t.Errorf("Issue error = %v, want ErrGroupNotFound", err)
		}
	})
}

func TestPeekDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.putToken(t, "peek", true, 0)

	if _, err := f.resolver.Peek(ctx, "peek"); err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	stored, err := f.store.GetInviteToken(ctx, "peek")
	if err != nil {
		t.Fatalf("GetInviteToken failed: %v", err)
	}
	if stored.Consumed() {
		t.Error("Peek consumed the token")
	}
}
