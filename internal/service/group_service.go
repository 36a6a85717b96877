package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/invite"
	"github.com/mmynk/runpool/internal/leaderboard"
	"github.com/mmynk/runpool/internal/membership"
	"github.com/mmynk/runpool/internal/middleware"
	"github.com/mmynk/runpool/internal/models"
	"github.com/mmynk/runpool/internal/payment"
	"github.com/mmynk/runpool/internal/period"
	"github.com/mmynk/runpool/internal/storage"
	"github.com/mmynk/runpool/pkg/api"
	"github.com/mmynk/runpool/pkg/api/apiconnect"
)

// maxClockSkew bounds how far in the future an activity may be logged.
const maxClockSkew = 5 * time.Minute

// GroupOptions configures the GroupService.
type GroupOptions struct {
	// InviteTTL is the default lifetime of new invites; zero never expires.
	InviteTTL time.Duration

	// PublicURL prefixes invite links.
	PublicURL string

	// Currency is used for groups created without one. Defaults to usd.
	Currency string
}

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	store     storage.Store
	resolver  *invite.Resolver
	admission *membership.Admission
	tracker   *payment.Tracker
	opts      GroupOptions
	now       func() time.Time
}

// NewGroupService creates a new GroupService.
func NewGroupService(store storage.Store, resolver *invite.Resolver, admission *membership.Admission, tracker *payment.Tracker, opts GroupOptions) *GroupService {
	return &GroupService{
		store:     store,
		resolver:  resolver,
		admission: admission,
		tracker:   tracker,
		opts:      opts,
		now:       time.Now,
	}
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	id := middleware.IdentityFrom(ctx)
	if !id.Valid() {
		return nil, toConnectError(auth.ErrUnauthenticated)
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "entry_fee", req.Msg.EntryFee)

	currency, err := normalizeCurrency(req.Msg.Currency, s.opts.Currency)
	if err != nil {
		return nil, toConnectError(err)
	}
	group := &models.Group{
		Name:     strings.TrimSpace(req.Msg.Name),
		Rules:    req.Msg.Rules,
		EntryFee: req.Msg.EntryFee,
		Currency: currency,
		OwnerID:  id.UserID,
	}
	if err := validateGroup(group); err != nil {
		return nil, toConnectError(err)
	}

	// Save to storage (generates ID and CreatedAt, adds the owner as member)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "owner_id", group.OwnerID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	group, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns the caller's active groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	id := middleware.IdentityFrom(ctx)
	if !id.Valid() {
		return nil, toConnectError(auth.ErrUnauthenticated)
	}

	groups, err := s.store.ListGroupsForUser(ctx, id.UserID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup changes name, rules and entry fee. Owner only.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	group, err := s.ownedGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("UpdateGroup request received", "group_id", group.ID, "name", req.Msg.Name)

	group.Name = strings.TrimSpace(req.Msg.Name)
	group.Rules = req.Msg.Rules
	group.EntryFee = req.Msg.EntryFee
	if err := validateGroup(group); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group)}), nil
}

// CreateInvite issues an invite token. Owner only.
func (s *GroupService) CreateInvite(ctx context.Context, req *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error) {
	ttl := s.opts.InviteTTL
	switch {
	case req.Msg.TtlSeconds > 0:
		ttl = time.Duration(req.Msg.TtlSeconds) * time.Second
	case req.Msg.TtlSeconds < 0:
		ttl = 0
	}

	token, err := s.resolver.Issue(ctx, middleware.IdentityFrom(ctx), req.Msg.GroupId, invite.IssueOptions{
		TTL:      ttl,
		Reusable: req.Msg.Reusable,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateInviteResponse{
		Token:     token.Token,
		Url:       InviteURL(s.opts.PublicURL, token.Token),
		ExpiresAt: token.ExpiresAt,
	}), nil
}

// InviteURL builds the shareable link for a token.
func InviteURL(publicURL, token string) string {
	return strings.TrimRight(publicURL, "/") + "/join?token=" + url.QueryEscape(token)
}

// JoinGroup resolves an invite token and admits the caller.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	group, already, err := s.Join(ctx, middleware.IdentityFrom(ctx), req.Msg.Token)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.JoinGroupResponse{Group: toAPIGroup(group), AlreadyMember: already}), nil
}

// Join is the invite flow shared by JoinGroup and the invite link: resolve
// the token, then admit the caller. A caller who is already an active
// member of the token's group is sent straight to it, leaving a single-use
// token unconsumed for the person it was meant for.
func (s *GroupService) Join(ctx context.Context, id *models.Identity, token string) (*models.Group, bool, error) {
	if !id.Valid() {
		return nil, false, auth.ErrUnauthenticated
	}

	t, err := s.resolver.Peek(ctx, token)
	if err != nil {
		return nil, false, err
	}
	active, err := s.admission.IsActiveMember(ctx, id.UserID, t.GroupID)
	if err != nil {
		return nil, false, err
	}
	if active {
		group, err := s.store.GetGroup(ctx, t.GroupID)
		if err != nil {
			return nil, false, err
		}
		return group, true, nil
	}

	ref, err := s.resolver.Resolve(ctx, id, token)
	if err != nil {
		return nil, false, err
	}
	if _, err := s.admission.Admit(ctx, id, ref.ID); err != nil {
		return nil, false, err
	}

	group, err := s.store.GetGroup(ctx, ref.ID)
	if err != nil {
		return nil, false, err
	}
	return group, false, nil
}

// LeaveGroup marks the caller's membership inactive.
func (s *GroupService) LeaveGroup(ctx context.Context, req *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error) {
	if err := s.admission.Leave(ctx, middleware.IdentityFrom(ctx), req.Msg.GroupId); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.LeaveGroupResponse{}), nil
}

// LogActivity records a workout for the caller.
func (s *GroupService) LogActivity(ctx context.Context, req *connect.Request[api.LogActivityRequest]) (*connect.Response[api.LogActivityResponse], error) {
	id := middleware.IdentityFrom(ctx)
	if !id.Valid() {
		return nil, toConnectError(auth.ErrUnauthenticated)
	}

	now := s.now()
	a := &models.Activity{
		UserID:          id.UserID,
		Kind:            models.ActivityKind(strings.ToLower(req.Msg.Kind)),
		DistanceMeters:  req.Msg.DistanceMeters,
		DurationSeconds: req.Msg.DurationSeconds,
		OccurredAt:      req.Msg.OccurredAt,
	}
	if a.OccurredAt == 0 {
		a.OccurredAt = now.Unix()
	}

	switch {
	case !a.Kind.Valid():
		return nil, toConnectError(fmt.Errorf("%w: unknown activity kind %q", ErrInvalidArgument, req.Msg.Kind))
	case a.DistanceMeters < 0 || a.DurationSeconds < 0:
		return nil, toConnectError(fmt.Errorf("%w: distance and duration must not be negative", ErrInvalidArgument))
	case a.OccurredAt > now.Add(maxClockSkew).Unix():
		return nil, toConnectError(fmt.Errorf("%w: activity is in the future", ErrInvalidArgument))
	}

	if err := s.store.CreateActivity(ctx, a); err != nil {
		slog.Error("LogActivity failed", "user_id", id.UserID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Activity logged", "user_id", id.UserID, "kind", a.Kind, "distance_m", a.DistanceMeters)
	return connect.NewResponse(&api.LogActivityResponse{Activity: toAPIActivity(a)}), nil
}

// GetLeaderboard ranks the group for a period. In groups with an entry fee
// only members who paid for the period, and the owner, may see it.
func (s *GroupService) GetLeaderboard(ctx context.Context, req *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error) {
	group, err := s.memberGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(err)
	}
	p, err := periodOrCurrent(req.Msg.PeriodId, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}

	id := middleware.IdentityFrom(ctx)
	if !group.IsFree() && group.OwnerID != id.UserID {
		paid, err := s.tracker.HasPaid(ctx, id.UserID, group.ID, p.String())
		if err != nil {
			return nil, toConnectError(err)
		}
		if !paid {
			return nil, toConnectError(ErrPaymentRequired)
		}
	}

	from, to := p.Bounds()
	members, err := s.store.GroupActivity(ctx, group.ID, from, to)
	if err != nil {
		slog.Error("GetLeaderboard failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	statuses, err := s.tracker.GroupStatuses(ctx, group.ID, p.String())
	if err != nil {
		return nil, toConnectError(err)
	}

	standings := leaderboard.Build(members, statuses)
	return connect.NewResponse(&api.GetLeaderboardResponse{
		PeriodId:  p.String(),
		Standings: toAPIStandings(standings),
		PaidCount: leaderboard.PaidCount(standings),
	}), nil
}

// memberGroup loads a group the caller is an active member of.
func (s *GroupService) memberGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return memberGroup(ctx, s.store, s.admission, groupID)
}

// ownedGroup loads a group the caller owns.
func (s *GroupService) ownedGroup(ctx context.Context, groupID string) (*models.Group, error) {
	id := middleware.IdentityFrom(ctx)
	if !id.Valid() {
		return nil, auth.ErrUnauthenticated
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != id.UserID {
		return nil, ErrNotOwner
	}
	return group, nil
}

func validateGroup(g *models.Group) error {
	if g.Name == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalidArgument)
	}
	if g.EntryFee < 0 {
		return fmt.Errorf("%w: entry fee must not be negative", ErrInvalidArgument)
	}
	return nil
}

func normalizeCurrency(c, fallback string) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		c = strings.ToLower(fallback)
	}
	if c == "" {
		return "usd", nil
	}
	if len(c) != 3 || strings.Trim(c, "abcdefghijklmnopqrstuvwxyz") != "" {
		return "", fmt.Errorf("%w: currency must be a 3-letter ISO code", ErrInvalidArgument)
	}
	return c, nil
}

// periodOrCurrent parses s, defaulting to the period containing now.
func periodOrCurrent(s string, now time.Time) (period.ID, error) {
	if s == "" {
		return period.Of(now), nil
	}
	return period.Parse(s)
}
