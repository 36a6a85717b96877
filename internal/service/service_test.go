package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/campaign"
	"github.com/mmynk/runpool/internal/invite"
	"github.com/mmynk/runpool/internal/membership"
	"github.com/mmynk/runpool/internal/middleware"
	"github.com/mmynk/runpool/internal/notify"
	"github.com/mmynk/runpool/internal/payment"
	"github.com/mmynk/runpool/internal/period"
	"github.com/mmynk/runpool/internal/processor"
	"github.com/mmynk/runpool/internal/storage"
	"github.com/mmynk/runpool/internal/storage/sqldb"
	"github.com/mmynk/runpool/pkg/api"
	"github.com/mmynk/runpool/pkg/api/apiconnect"
)

const (
	testWebhookSecret   = "whsec_test"
	testSchedulerSecret = "scheduler-secret-for-tests"
)

// testServer wires every service the way the server binary does.
type testServer struct {
	url      string
	store    *sqldb.Store
	auth     apiconnect.AuthServiceClient
	groups   apiconnect.GroupServiceClient
	payments apiconnect.PaymentServiceClient
	campaign apiconnect.CampaignServiceClient
}

// setupTestServer creates a test server backed by a fresh SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), sqldb.Options{})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager, err := auth.NewJWTManager("test-secret-key-for-service-tests", time.Hour)
	if err != nil {
		t.Fatalf("failed to create JWT manager: %v", err)
	}
	verifier, err := processor.NewVerifier(testWebhookSecret)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	secret, err := auth.NewSharedSecret(testSchedulerSecret)
	if err != nil {
		t.Fatalf("failed to create shared secret: %v", err)
	}
	registry, err := campaign.LoadRegistry("")
	if err != nil {
		t.Fatalf("failed to load campaigns: %v", err)
	}

	tracker := payment.NewTracker(store, verifier, nil)
	admission := membership.NewAdmission(store)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	dispatcher := campaign.NewDispatcher(registry, store, notify.LogSender{}, campaign.Options{Rate: 1000, Burst: 100})

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)

	groupSvc := NewGroupService(store, invite.NewResolver(store), admission, tracker, GroupOptions{
		InviteTTL: time.Hour,
		PublicURL: server.URL,
	})

	optional := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor())
	required := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor(), middleware.RequireAuth())

	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, store, jwtManager, slog.Default()), optional))
	mux.Handle(apiconnect.NewGroupServiceHandler(groupSvc, required))
	mux.Handle(apiconnect.NewPaymentServiceHandler(NewPaymentService(store, admission, tracker, PayoutURLs{
		Return:  server.URL + "/payouts/done",
		Refresh: server.URL + "/payouts/refresh",
	}), required))
	mux.Handle(apiconnect.NewCampaignServiceHandler(NewCampaignService(dispatcher),
		connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.RequireSharedSecret(secret))))
	mux.Handle("/join", middleware.Session(jwtManager)(JoinHandler(groupSvc, "/signin")))
	mux.Handle("/webhooks/stripe", WebhookHandler(tracker))

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		url:      server.URL,
		store:    store,
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		payments: apiconnect.NewPaymentServiceClient(http.DefaultClient, server.URL),
		campaign: apiconnect.NewCampaignServiceClient(http.DefaultClient, server.URL),
	}
}

// register creates a user and returns its session token.
func (s *testServer) register(t *testing.T, name string) (string, *api.User) {
	t.Helper()
	resp, err := s.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       strings.ToLower(name) + "@example.com",
		DisplayName: name,
		Password:    "correct-horse",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return resp.Msg.Token, resp.Msg.User
}

// createGroup creates a group owned by the token's user.
func (s *testServer) createGroup(t *testing.T, token string, fee int64) *api.Group {
	t.Helper()
	resp, err := s.groups.CreateGroup(context.Background(), authed(token, &api.CreateGroupRequest{
		Name:     "Trail Crew",
		Rules:    "Three runs a week",
		EntryFee: fee,
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

// invite issues a single-use invite and returns the token.
func (s *testServer) invite(t *testing.T, token, groupID string) string {
	t.Helper()
	resp, err := s.groups.CreateInvite(context.Background(), authed(token, &api.CreateInviteRequest{GroupId: groupID}))
	if err != nil {
		t.Fatalf("CreateInvite failed: %v", err)
	}
	return resp.Msg.Token
}

// join registers a user and admits them into the group.
func (s *testServer) join(t *testing.T, ownerToken, groupID, name string) (string, *api.User) {
	t.Helper()
	token, user := s.register(t, name)
	if _, err := s.groups.JoinGroup(context.Background(), authed(token, &api.JoinGroupRequest{
		Token: s.invite(t, ownerToken, groupID),
	})); err != nil {
		t.Fatalf("JoinGroup(%s) failed: %v", name, err)
	}
	return token, user
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("code: expected %v, got %v (%v)", want, got, err)
	}
}

// lastWeek is a closed period, so activities inside it are never in the future.
func lastWeek() period.ID {
	return period.Of(time.Now()).Previous()
}

func TestRegisterAndGetCurrentUser(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "correct-horse",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Msg.Token == "" {
		t.Fatal("expected a session token")
	}
	if cookie := resp.Header().Get("Set-Cookie"); !strings.Contains(cookie, middleware.SessionCookie+"=") {
		t.Errorf("expected session cookie, got %q", cookie)
	}

	me, err := s.auth.GetCurrentUser(context.Background(), authed(resp.Msg.Token, &api.GetCurrentUserRequest{}))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.Id != resp.Msg.User.Id {
		t.Errorf("user: expected %s, got %s", resp.Msg.User.Id, me.Msg.User.Id)
	}

	_, err = s.auth.GetCurrentUser(context.Background(), connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.auth.Login(context.Background(), connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice again",
		Password:    "correct-horse",
	}))
	assertCode(t, err, connect.CodeAlreadyExists)
}

func TestRPCsRequireSession(t *testing.T) {
	s := setupTestServer(t)

	_, err := s.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.groups.ListGroups(context.Background(), authed("not-a-jwt", &api.ListGroupsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.payments.StartPayoutOnboarding(context.Background(), connect.NewRequest(&api.StartPayoutOnboardingRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestCreateGroup(t *testing.T) {
	s := setupTestServer(t)
	owner, user := s.register(t, "Owner")

	group := s.createGroup(t, owner, 500)
	if group.Id == "" {
		t.Error("expected non-empty group ID")
	}
	if group.OwnerId != user.Id {
		t.Errorf("owner: expected %s, got %s", user.Id, group.OwnerId)
	}
	if group.Currency != "usd" {
		t.Errorf("currency: expected usd, got %s", group.Currency)
	}

	list, err := s.groups.ListGroups(context.Background(), authed(owner, &api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list.Msg.Groups) != 1 || list.Msg.Groups[0].Id != group.Id {
		t.Errorf("expected owner to be listed in their group, got %+v", list.Msg.Groups)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")

	tests := []struct {
		name string
		req  *api.CreateGroupRequest
	}{
		{"empty name", &api.CreateGroupRequest{Name: "   "}},
		{"negative fee", &api.CreateGroupRequest{Name: "Crew", EntryFee: -1}},
		{"bad currency", &api.CreateGroupRequest{Name: "Crew", Currency: "dollars"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.groups.CreateGroup(context.Background(), authed(owner, tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestUpdateGroupOwnerOnly(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)
	alice, _ := s.join(t, owner, group.Id, "Alice")

	_, err := s.groups.UpdateGroup(context.Background(), authed(alice, &api.UpdateGroupRequest{
		GroupId: group.Id, Name: "Hijacked",
	}))
	assertCode(t, err, connect.CodePermissionDenied)

	resp, err := s.groups.UpdateGroup(context.Background(), authed(owner, &api.UpdateGroupRequest{
		GroupId: group.Id, Name: "Night Owls", Rules: "Run after dark", EntryFee: 300,
	}))
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if resp.Msg.Group.Name != "Night Owls" || resp.Msg.Group.EntryFee != 300 {
		t.Errorf("unexpected group after update: %+v", resp.Msg.Group)
	}
}

func TestInviteFlow(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)

	inv, err := s.groups.CreateInvite(context.Background(), authed(owner, &api.CreateInviteRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("CreateInvite failed: %v", err)
	}
	if want := s.url + "/join?token=" + inv.Msg.Token; inv.Msg.Url != want {
		t.Errorf("url: expected %s, got %s", want, inv.Msg.Url)
	}
	if inv.Msg.ExpiresAt == 0 {
		t.Error("expected default TTL to set an expiry")
	}

	alice, _ := s.register(t, "Alice")
	bob, _ := s.register(t, "Bob")

	// Bob is not a member yet.
	_, err = s.groups.GetGroup(context.Background(), authed(bob, &api.GetGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	joined, err := s.groups.JoinGroup(context.Background(), authed(alice, &api.JoinGroupRequest{Token: inv.Msg.Token}))
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if joined.Msg.Group.Id != group.Id || joined.Msg.AlreadyMember {
		t.Errorf("unexpected join response: %+v", joined.Msg)
	}

	again, err := s.groups.JoinGroup(context.Background(), authed(alice, &api.JoinGroupRequest{Token: inv.Msg.Token}))
	if err != nil {
		t.Fatalf("second JoinGroup failed: %v", err)
	}
	if !again.Msg.AlreadyMember {
		t.Error("expected AlreadyMember on second join")
	}

	_, err = s.groups.JoinGroup(context.Background(), authed(bob, &api.JoinGroupRequest{Token: inv.Msg.Token}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = s.groups.JoinGroup(context.Background(), authed(bob, &api.JoinGroupRequest{Token: "no-such-token"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = s.groups.CreateInvite(context.Background(), authed(alice, &api.CreateInviteRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	got, err := s.groups.GetGroup(context.Background(), authed(alice, &api.GetGroupRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Msg.Group.Name != group.Name {
		t.Errorf("name: expected %s, got %s", group.Name, got.Msg.Group.Name)
	}
}

func TestReusableInvite(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)

	inv, err := s.groups.CreateInvite(context.Background(), authed(owner, &api.CreateInviteRequest{
		GroupId:    group.Id,
		Reusable:   true,
		TtlSeconds: -1,
	}))
	if err != nil {
		t.Fatalf("CreateInvite failed: %v", err)
	}
	if inv.Msg.ExpiresAt != 0 {
		t.Errorf("expected no expiry, got %d", inv.Msg.ExpiresAt)
	}

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		token, _ := s.register(t, name)
		if _, err := s.groups.JoinGroup(context.Background(), authed(token, &api.JoinGroupRequest{Token: inv.Msg.Token})); err != nil {
			t.Fatalf("JoinGroup(%s) failed: %v", name, err)
		}
	}
}

func TestLeaveGroup(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)
	alice, _ := s.join(t, owner, group.Id, "Alice")

	_, err := s.groups.LeaveGroup(context.Background(), authed(owner, &api.LeaveGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	if _, err := s.groups.LeaveGroup(context.Background(), authed(alice, &api.LeaveGroupRequest{GroupId: group.Id})); err != nil {
		t.Fatalf("LeaveGroup failed: %v", err)
	}

	_, err = s.groups.GetGroup(context.Background(), authed(alice, &api.GetGroupRequest{GroupId: group.Id}))
	assertCode(t, err, connect.CodePermissionDenied)

	list, err := s.groups.ListGroups(context.Background(), authed(alice, &api.ListGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list.Msg.Groups) != 0 {
		t.Errorf("expected no groups after leaving, got %d", len(list.Msg.Groups))
	}

	// A fresh invite brings her back.
	if _, err := s.groups.JoinGroup(context.Background(), authed(alice, &api.JoinGroupRequest{
		Token: s.invite(t, owner, group.Id),
	})); err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
}

func TestLogActivityValidation(t *testing.T) {
	s := setupTestServer(t)
	token, _ := s.register(t, "Alice")

	tests := []struct {
		name string
		req  *api.LogActivityRequest
		code connect.Code
	}{
		{"run", &api.LogActivityRequest{Kind: "run", DistanceMeters: 5000, DurationSeconds: 1500}, 0},
		{"uppercase kind", &api.LogActivityRequest{Kind: "WALK", DistanceMeters: 2000}, 0},
		{"unknown kind", &api.LogActivityRequest{Kind: "teleport"}, connect.CodeInvalidArgument},
		{"negative distance", &api.LogActivityRequest{Kind: "run", DistanceMeters: -1}, connect.CodeInvalidArgument},
		{"future", &api.LogActivityRequest{Kind: "run", OccurredAt: time.Now().Add(time.Hour).Unix()}, connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.groups.LogActivity(context.Background(), authed(token, tt.req))
			if tt.code != 0 {
				assertCode(t, err, tt.code)
				return
			}
			if err != nil {
				t.Fatalf("LogActivity failed: %v", err)
			}
			if resp.Msg.Activity.Id == "" || resp.Msg.Activity.OccurredAt == 0 {
				t.Errorf("expected id and timestamp, got %+v", resp.Msg.Activity)
			}
		})
	}
}

func TestFreeGroupLeaderboard(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)
	alice, aliceUser := s.join(t, owner, group.Id, "Alice")
	bob, _ := s.join(t, owner, group.Id, "Bob")

	week := lastWeek()
	at := week.Start().Add(time.Hour).Unix()
	for i := 0; i < 2; i++ {
		if _, err := s.groups.LogActivity(context.Background(), authed(alice, &api.LogActivityRequest{
			Kind: "run", DistanceMeters: 5000, OccurredAt: at,
		})); err != nil {
			t.Fatalf("LogActivity failed: %v", err)
		}
	}
	if _, err := s.groups.LogActivity(context.Background(), authed(bob, &api.LogActivityRequest{
		Kind: "walk", DistanceMeters: 1000, OccurredAt: at,
	})); err != nil {
		t.Fatalf("LogActivity failed: %v", err)
	}

	resp, err := s.groups.GetLeaderboard(context.Background(), authed(bob, &api.GetLeaderboardRequest{
		GroupId:  group.Id,
		PeriodId: week.String(),
	}))
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if resp.Msg.PeriodId != week.String() {
		t.Errorf("period: expected %s, got %s", week, resp.Msg.PeriodId)
	}
	if len(resp.Msg.Standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(resp.Msg.Standings))
	}
	top := resp.Msg.Standings[0]
	if top.UserId != aliceUser.Id || top.Rank != 1 || top.Activities != 2 {
		t.Errorf("expected Alice first with 2 activities, got %+v", top)
	}

	_, err = s.groups.GetLeaderboard(context.Background(), authed(bob, &api.GetLeaderboardRequest{
		GroupId:  group.Id,
		PeriodId: "2026-W99",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{auth.ErrUnauthenticated, connect.CodeUnauthenticated},
		{fmt.Errorf("wrapped: %w", invite.ErrInvalidToken), connect.CodeInvalidArgument},
		{invite.ErrTokenConsumed, connect.CodeFailedPrecondition},
		{invite.ErrGroupNotFound, connect.CodeNotFound},
		{ErrPaymentRequired, connect.CodePermissionDenied},
		{fmt.Errorf("lookup: %w", storage.ErrTransient), connect.CodeUnavailable},
		{errors.New("boom"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := connect.CodeOf(toConnectError(tt.err)); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if toConnectError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
