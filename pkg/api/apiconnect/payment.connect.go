package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/pkg/api"
)

// PaymentServiceName is the fully-qualified name of the PaymentService service.
const PaymentServiceName = "runpool.v1.PaymentService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// PaymentServiceInitiatePaymentProcedure is the fully-qualified name of the PaymentService's InitiatePayment RPC.
	PaymentServiceInitiatePaymentProcedure = "/runpool.v1.PaymentService/InitiatePayment"
	// PaymentServiceGetPaymentStatusProcedure is the fully-qualified name of the PaymentService's GetPaymentStatus RPC.
	PaymentServiceGetPaymentStatusProcedure = "/runpool.v1.PaymentService/GetPaymentStatus"
	// PaymentServiceStartPayoutOnboardingProcedure is the fully-qualified name of the PaymentService's StartPayoutOnboarding RPC.
	PaymentServiceStartPayoutOnboardingProcedure = "/runpool.v1.PaymentService/StartPayoutOnboarding"
)

// PaymentServiceClient is a client for the runpool.v1.PaymentService service.
type PaymentServiceClient interface {
	InitiatePayment(context.Context, *connect.Request[api.InitiatePaymentRequest]) (*connect.Response[api.InitiatePaymentResponse], error)
	GetPaymentStatus(context.Context, *connect.Request[api.GetPaymentStatusRequest]) (*connect.Response[api.GetPaymentStatusResponse], error)
	StartPayoutOnboarding(context.Context, *connect.Request[api.StartPayoutOnboardingRequest]) (*connect.Response[api.StartPayoutOnboardingResponse], error)
}

// NewPaymentServiceClient constructs a client for the runpool.v1.PaymentService service. The
// baseURL is the service's root, e.g. http://localhost:8080.
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PaymentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &paymentServiceClient{
		initiatePayment: connect.NewClient[api.InitiatePaymentRequest, api.InitiatePaymentResponse](
			httpClient,
			baseURL+PaymentServiceInitiatePaymentProcedure,
			opts...,
		),
		getPaymentStatus: connect.NewClient[api.GetPaymentStatusRequest, api.GetPaymentStatusResponse](
			httpClient,
			baseURL+PaymentServiceGetPaymentStatusProcedure,
			opts...,
		),
		startPayoutOnboarding: connect.NewClient[api.StartPayoutOnboardingRequest, api.StartPayoutOnboardingResponse](
			httpClient,
			baseURL+PaymentServiceStartPayoutOnboardingProcedure,
			opts...,
		),
	}
}

// paymentServiceClient implements PaymentServiceClient.
type paymentServiceClient struct {
	initiatePayment       *connect.Client[api.InitiatePaymentRequest, api.InitiatePaymentResponse]
	getPaymentStatus      *connect.Client[api.GetPaymentStatusRequest, api.GetPaymentStatusResponse]
	startPayoutOnboarding *connect.Client[api.StartPayoutOnboardingRequest, api.StartPayoutOnboardingResponse]
}

// InitiatePayment calls runpool.v1.PaymentService.InitiatePayment.
func (c *paymentServiceClient) InitiatePayment(ctx context.Context, req *connect.Request[api.InitiatePaymentRequest]) (*connect.Response[api.InitiatePaymentResponse], error) {
	return c.initiatePayment.CallUnary(ctx, req)
}

// GetPaymentStatus calls runpool.v1.PaymentService.GetPaymentStatus.
func (c *paymentServiceClient) GetPaymentStatus(ctx context.Context, req *connect.Request[api.GetPaymentStatusRequest]) (*connect.Response[api.GetPaymentStatusResponse], error) {
	return c.getPaymentStatus.CallUnary(ctx, req)
}

// StartPayoutOnboarding calls runpool.v1.PaymentService.StartPayoutOnboarding.
func (c *paymentServiceClient) StartPayoutOnboarding(ctx context.Context, req *connect.Request[api.StartPayoutOnboardingRequest]) (*connect.Response[api.StartPayoutOnboardingResponse], error) {
	return c.startPayoutOnboarding.CallUnary(ctx, req)
}

// PaymentServiceHandler is an implementation of the runpool.v1.PaymentService service.
type PaymentServiceHandler interface {
	InitiatePayment(context.Context, *connect.Request[api.InitiatePaymentRequest]) (*connect.Response[api.InitiatePaymentResponse], error)
	GetPaymentStatus(context.Context, *connect.Request[api.GetPaymentStatusRequest]) (*connect.Response[api.GetPaymentStatusResponse], error)
	StartPayoutOnboarding(context.Context, *connect.Request[api.StartPayoutOnboardingRequest]) (*connect.Response[api.StartPayoutOnboardingResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler from the service implementation. It
// returns the path on which to mount the handler and the handler itself.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	paymentServiceInitiatePaymentHandler := connect.NewUnaryHandler(
		PaymentServiceInitiatePaymentProcedure,
		svc.InitiatePayment,
		opts...,
	)
	paymentServiceGetPaymentStatusHandler := connect.NewUnaryHandler(
		PaymentServiceGetPaymentStatusProcedure,
		svc.GetPaymentStatus,
		opts...,
	)
	paymentServiceStartPayoutOnboardingHandler := connect.NewUnaryHandler(
		PaymentServiceStartPayoutOnboardingProcedure,
		svc.StartPayoutOnboarding,
		opts...,
	)
	return "/runpool.v1.PaymentService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PaymentServiceInitiatePaymentProcedure:
			paymentServiceInitiatePaymentHandler.ServeHTTP(w, r)
		case PaymentServiceGetPaymentStatusProcedure:
			paymentServiceGetPaymentStatusHandler.ServeHTTP(w, r)
		case PaymentServiceStartPayoutOnboardingProcedure:
			paymentServiceStartPayoutOnboardingHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedPaymentServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedPaymentServiceHandler struct{}

func (UnimplementedPaymentServiceHandler) InitiatePayment(context.Context, *connect.Request[api.InitiatePaymentRequest]) (*connect.Response[api.InitiatePaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.PaymentService.InitiatePayment is not implemented"))
}

func (UnimplementedPaymentServiceHandler) GetPaymentStatus(context.Context, *connect.Request[api.GetPaymentStatusRequest]) (*connect.Response[api.GetPaymentStatusResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.PaymentService.GetPaymentStatus is not implemented"))
}

func (UnimplementedPaymentServiceHandler) StartPayoutOnboarding(context.Context, *connect.Request[api.StartPayoutOnboardingRequest]) (*connect.Response[api.StartPayoutOnboardingResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("runpool.v1.PaymentService.StartPayoutOnboarding is not implemented"))
}
