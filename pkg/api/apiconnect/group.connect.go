package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "runpool.v1.GroupService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// GroupServiceCreateGroupProcedure is the fully-qualified name of the GroupService's CreateGroup RPC.
	GroupServiceCreateGroupProcedure = "/runpool.v1.GroupService/CreateGroup"
	// GroupServiceGetGroupProcedure is the fully-qualified name of the GroupService's GetGroup RPC.
	GroupServiceGetGroupProcedure = "/runpool.v1.GroupService/GetGroup"
	// GroupServiceListGroupsProcedure is the fully-qualified name of the GroupService's ListGroups RPC.
	GroupServiceListGroupsProcedure = "/runpool.v1.GroupService/ListGroups"
	// GroupServiceUpdateGroupProcedure is the fully-qualified name of the GroupService's UpdateGroup RPC.
	GroupServiceUpdateGroupProcedure = "/runpool.v1.GroupService/UpdateGroup"
	// GroupServiceCreateInviteProcedure is the fully-qualified name of the GroupService's CreateInvite RPC.
	GroupServiceCreateInviteProcedure = "/runpool.v1.GroupService/CreateInvite"
	// GroupServiceJoinGroupProcedure is the fully-qualified name of the GroupService's JoinGroup RPC.
	GroupServiceJoinGroupProcedure = "/runpool.v1.GroupService/JoinGroup"
	// GroupServiceLeaveGroupProcedure is the fully-qualified name of the GroupService's LeaveGroup RPC.
	GroupServiceLeaveGroupProcedure = "/runpool.v1.GroupService/LeaveGroup"
	// GroupServiceLogActivityProcedure is the fully-qualified name of the GroupService's LogActivity RPC.
	GroupServiceLogActivityProcedure = "/runpool.v1.GroupService/LogActivity"
	// GroupServiceGetLeaderboardProcedure is the fully-qualified name of the GroupService's GetLeaderboard RPC.
	GroupServiceGetLeaderboardProcedure = "/runpool.v1.GroupService/GetLeaderboard"
)

// GroupServiceClient is a client for the runpool.v1.GroupService service.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	CreateInvite(context.Context, *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	LeaveGroup(context.Context, *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error)
	LogActivity(context.Context, *connect.Request[api.LogActivityRequest]) (*connect.Response[api.LogActivityResponse], error)
	GetLeaderboard(context.Context, *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error)
}

// NewGroupServiceClient constructs a client for the runpool.v1.GroupService service. The
// baseURL is the service's root, e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &groupServiceClient{
		createGroup: connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](
			httpClient,
			baseURL+GroupServiceCreateGroupProcedure,
			opts...,
		),
		getGroup: connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](
			httpClient,
			baseURL+GroupServiceGetGroupProcedure,
			opts...,
		),
		listGroups: connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](
			httpClient,
			baseURL+GroupServiceListGroupsProcedure,
			opts...,
		),
		updateGroup: connect.NewClient[api.UpdateGroupRequest, api.UpdateGroupResponse](
			httpClient,
			baseURL+GroupServiceUpdateGroupProcedure,
			opts...,
		),
		createInvite: connect.NewClient[api.CreateInviteRequest, api.CreateInviteResponse](
			httpClient,
			baseURL+GroupServiceCreateInviteProcedure,
			opts...,
		),
		joinGroup: connect.NewClient[api.JoinGroupRequest, api.JoinGroupResponse](
			httpClient,
			baseURL+GroupServiceJoinGroupProcedure,
			opts...,
		),
		leaveGroup: connect.NewClient[api.LeaveGroupRequest, api.LeaveGroupResponse](
			httpClient,
			baseURL+GroupServiceLeaveGroupProcedure,
			opts...,
		),
		logActivity: connect.NewClient[api.LogActivityRequest, api.LogActivityResponse](
			httpClient,
			baseURL+GroupServiceLogActivityProcedure,
			opts...,
		),
		getLeaderboard: connect.NewClient[api.GetLeaderboardRequest, api.GetLeaderboardResponse](
			httpClient,
			baseURL+GroupServiceGetLeaderboardProcedure,
			opts...,
		),
	}
}

// groupServiceClient implements GroupServiceClient.
type groupServiceClient struct {
	createGroup    *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup       *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups     *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	updateGroup    *connect.Client[api.UpdateGroupRequest, api.UpdateGroupResponse]
	createInvite   *connect.Client[api.CreateInviteRequest, api.CreateInviteResponse]
	joinGroup      *connect.Client[api.JoinGroupRequest, api.JoinGroupResponse]
	leaveGroup     *connect.Client[api.LeaveGroupRequest, api.LeaveGroupResponse]
	logActivity    *connect.Client[api.LogActivityRequest, api.LogActivityResponse]
	getLeaderboard *connect.Client[api.GetLeaderboardRequest, api.GetLeaderboardResponse]
}

// CreateGroup calls runpool.v1.GroupService.CreateGroup.
func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

// GetGroup calls runpool.v1.GroupService.GetGroup.
func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

// ListGroups calls runpool.v1.GroupService.ListGroups.
func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

// UpdateGroup calls runpool.v1.GroupService.UpdateGroup.
func (c *groupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

// CreateInvite calls runpool.v1.GroupService.CreateInvite.
func (c *groupServiceClient) CreateInvite(ctx context.Context, req *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error) {
	return c.createInvite.CallUnary(ctx, req)
}

// JoinGroup calls runpool.v1.GroupService.JoinGroup.
func (c *groupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

// LeaveGroup calls runpool.v1.GroupService.LeaveGroup.
func (c *groupServiceClient) LeaveGroup(ctx context.Context, req *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error) {
	return c.leaveGroup.CallUnary(ctx, req)
}

// LogActivity calls runpool.v1.GroupService.LogActivity.
func (c *groupServiceClient) LogActivity(ctx context.Context, req *connect.Request[api.LogActivityRequest]) (*connect.Response[api.LogActivityResponse], error) {
	return c.logActivity.CallUnary(ctx, req)
}

// GetLeaderboard calls runpool.v1.GroupService.GetLeaderboard.
func (c *groupServiceClient) GetLeaderboard(ctx context.Context, req *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error) {
	return c.getLeaderboard.CallUnary(ctx, req)
}

// GroupServiceHandler is an implementation of the runpool.v1.GroupService service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	CreateInvite(context.Context, *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	LeaveGroup(context.Context, *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error)
	LogActivity(context.Context, *connect.Request[api.LogActivityRequest]) (*connect.Response[api.LogActivityResponse], error)
	GetLeaderboard(context.Context, *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation. It
// returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	groupServiceCreateGroupHandler := connect.NewUnaryHandler(
		GroupServiceCreateGroupProcedure,
		svc.CreateGroup,
		opts...,
	)
	groupServiceGetGroupHandler := connect.NewUnaryHandler(
		GroupServiceGetGroupProcedure,
		svc.GetGroup,
		opts...,
	)
	groupServiceListGroupsHandler := connect.NewUnaryHandler(
		GroupServiceListGroupsProcedure,
		svc.ListGroups,
		opts...,
	)
	groupServiceUpdateGroupHandler := connect.NewUnaryHandler(
		GroupServiceUpdateGroupProcedure,
		svc.UpdateGroup,
		opts...,
	)
	groupServiceCreateInviteHandler := connect.NewUnaryHandler(
		GroupServiceCreateInviteProcedure,
		svc.CreateInvite,
		opts...,
	)
	groupServiceJoinGroupHandler := connect.NewUnaryHandler(
		GroupServiceJoinGroupProcedure,
		svc.JoinGroup,
		opts...,
	)
	groupServiceLeaveGroupHandler := connect.NewUnaryHandler(
		GroupServiceLeaveGroupProcedure,
		svc.LeaveGroup,
		opts...,
	)
	groupServiceLogActivityHandler := connect.NewUnaryHandler(
		GroupServiceLogActivityProcedure,
		svc.LogActivity,
		opts...,
	)
	groupServiceGetLeaderboardHandler := connect.NewUnaryHandler(
		GroupServiceGetLeaderboardProcedure,
		svc.GetLeaderboard,
		opts...,
	)
	return "/runpool.v1.GroupService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceCreateGroupProcedure:
			groupServiceCreateGroupHandler.ServeHTTP(w, r)
		case GroupServiceGetGroupProcedure:
			groupServiceGetGroupHandler.ServeHTTP(w, r)
		case GroupServiceListGroupsProcedure:
			groupServiceListGroupsHandler.ServeHTTP(w, r)
		case GroupServiceUpdateGroupProcedure:
			groupServiceUpdateGroupHandler.ServeHTTP(w, r)
		case GroupServiceCreateInviteProcedure:
			groupServiceCreateInviteHandler.ServeHTTP(w, r)
		case GroupServiceJoinGroupProcedure:
			groupServiceJoinGroupHandler.ServeHTTP(w, r)
		case GroupServiceLeaveGroupProcedure:
			groupServiceLeaveGroupHandler.ServeHTTP(w, r)
		case GroupServiceLogActivityProcedure:
			groupServiceLogActivityHandler.ServeHTTP(w, r)
		case GroupServiceGetLeaderboardProcedure:
			groupServiceGetLeaderboardHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedGroupServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedGroupServiceHandler struct{}

func (UnimplementedGroupServiceHandler) CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.CreateGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.GetGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.ListGroups is not implemented"))
}

func (UnimplementedGroupServiceHandler) UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.UpdateGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) CreateInvite(context.Context, *connect.Request[api.CreateInviteRequest]) (*connect.Response[api.CreateInviteResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.CreateInvite is not implemented"))
}

func (UnimplementedGroupServiceHandler) JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.JoinGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) LeaveGroup(context.Context, *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.LeaveGroup is not implemented"))
}

func (UnimplementedGroupServiceHandler) LogActivity(context.Context, *connect.Request[api.LogActivityRequest]) (*connect.Response[api.LogActivityResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.LogActivity is not implemented"))
}

func (UnimplementedGroupServiceHandler) GetLeaderboard(context.Context, *connect.Request[api.GetLeaderboardRequest]) (*connect.Response[api.GetLeaderboardResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.GroupService.GetLeaderboard is not implemented"))
}
