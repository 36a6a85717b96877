package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/pkg/api"
)

// CampaignServiceName is the fully-qualified name of the CampaignService service.
const CampaignServiceName = "runpool.v1.CampaignService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// CampaignServiceRunCampaignProcedure is the fully-qualified name of the CampaignService's RunCampaign RPC.
	CampaignServiceRunCampaignProcedure = "/runpool.v1.CampaignService/RunCampaign"
	// CampaignServiceListCampaignsProcedure is the fully-qualified name of the CampaignService's ListCampaigns RPC.
	CampaignServiceListCampaignsProcedure = "/runpool.v1.CampaignService/ListCampaigns"
)

// CampaignServiceClient is a client for the runpool.v1.CampaignService service.
type CampaignServiceClient interface {
	RunCampaign(context.Context, *connect.Request[api.RunCampaignRequest]) (*connect.Response[api.RunCampaignResponse], error)
	ListCampaigns(context.Context, *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error)
}

// NewCampaignServiceClient constructs a client for the runpool.v1.CampaignService service. The
// baseURL is the service's root, e.g. http://localhost:8080.
func NewCampaignServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CampaignServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &campaignServiceClient{
		runCampaign: connect.NewClient[api.RunCampaignRequest, api.RunCampaignResponse](
			httpClient,
			baseURL+CampaignServiceRunCampaignProcedure,
			opts...,
		),
		listCampaigns: connect.NewClient[api.ListCampaignsRequest, api.ListCampaignsResponse](
			httpClient,
			baseURL+CampaignServiceListCampaignsProcedure,
			opts...,
		),
	}
}

// campaignServiceClient implements CampaignServiceClient.
type campaignServiceClient struct {
	runCampaign   *connect.Client[api.RunCampaignRequest, api.RunCampaignResponse]
	listCampaigns *connect.Client[api.ListCampaignsRequest, api.ListCampaignsResponse]
}

// RunCampaign calls runpool.v1.CampaignService.RunCampaign.
func (c *campaignServiceClient) RunCampaign(ctx context.Context, req *connect.Request[api.RunCampaignRequest]) (*connect.Response[api.RunCampaignResponse], error) {
	return c.runCampaign.CallUnary(ctx, req)
}

// ListCampaigns calls runpool.v1.CampaignService.ListCampaigns.
func (c *campaignServiceClient) ListCampaigns(ctx context.Context, req *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error) {
	return c.listCampaigns.CallUnary(ctx, req)
}

// CampaignServiceHandler is an implementation of the runpool.v1.CampaignService service.
type CampaignServiceHandler interface {
	RunCampaign(context.Context, *connect.Request[api.RunCampaignRequest]) (*connect.Response[api.RunCampaignResponse], error)
	ListCampaigns(context.Context, *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error)
}

// NewCampaignServiceHandler builds an HTTP handler from the service implementation. It
// returns the path on which to mount the handler and the handler itself.
func NewCampaignServiceHandler(svc CampaignServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	campaignServiceRunCampaignHandler := connect.NewUnaryHandler(
		CampaignServiceRunCampaignProcedure,
		svc.RunCampaign,
		opts...,
	)
	campaignServiceListCampaignsHandler := connect.NewUnaryHandler(
		CampaignServiceListCampaignsProcedure,
		svc.ListCampaigns,
		opts...,
	)
	return "/runpool.v1.CampaignService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CampaignServiceRunCampaignProcedure:
			campaignServiceRunCampaignHandler.ServeHTTP(w, r)
		case CampaignServiceListCampaignsProcedure:
			campaignServiceListCampaignsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedCampaignServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedCampaignServiceHandler struct{}

func (UnimplementedCampaignServiceHandler) RunCampaign(context.Context, *connect.Request[api.RunCampaignRequest]) (*connect.Response[api.RunCampaignResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.CampaignService.RunCampaign is not implemented"))
}

func (UnimplementedCampaignServiceHandler) ListCampaigns(context.Context, *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.CampaignService.ListCampaigns is not implemented"))
}
