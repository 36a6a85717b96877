package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/internal/membership"
	"github.com/mmynk/runpool/internal/middleware"
	"github.com/mmynk/runpool/internal/payment"
	"github.com/mmynk/runpool/internal/storage"
	"github.com/mmynk/runpool/pkg/api"
	"github.com/mmynk/runpool/pkg/api/apiconnect"
)

// PaymentService implements the Connect PaymentService.
type PaymentService struct {
	apiconnect.UnimplementedPaymentServiceHandler
	groups    storage.GroupStore
	admission *membership.Admission
	tracker   *payment.Tracker
	payouts   PayoutURLs
	now       func() time.Time
}

// PayoutURLs are the pages the processor sends owners back to after payout
// onboarding.
type PayoutURLs struct {
	Return  string
	Refresh string
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(groups storage.GroupStore, admission *membership.Admission, tracker *payment.Tracker, payouts PayoutURLs) *PaymentService {
	return &PaymentService{
		groups:    groups,
		admission: admission,
		tracker:   tracker,
		payouts:   payouts,
		now:       time.Now,
	}
}

// InitiatePayment starts the caller's entry-fee payment for a period.
// Calling it again for the same period returns the same record.
func (s *PaymentService) InitiatePayment(ctx context.Context, req *connect.Request[api.InitiatePaymentRequest]) (*connect.Response[api.InitiatePaymentResponse], error) {
	group, err := memberGroup(ctx, s.groups, s.admission, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.IsFree() {
		return nil, toConnectError(ErrFreeGroup)
	}
	p, err := periodOrCurrent(req.Msg.PeriodId, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}

	id := middleware.IdentityFrom(ctx)
	slog.Info("InitiatePayment request received", "user_id", id.UserID, "group_id", group.ID, "period", p.String())

	result, err := s.tracker.Initiate(ctx, id.UserID, group.ID, p.String(), group.EntryFee)
	if err != nil {
		slog.Error("InitiatePayment failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.InitiatePaymentResponse{
		PeriodId:     p.String(),
		Status:       string(result.Record.Status),
		Amount:       result.Record.Amount,
		Currency:     result.Record.Currency,
		ClientSecret: result.ClientSecret,
	}), nil
}

// GetPaymentStatus returns the caller's payment status for a period.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, req *connect.Request[api.GetPaymentStatusRequest]) (*connect.Response[api.GetPaymentStatusResponse], error) {
	group, err := memberGroup(ctx, s.groups, s.admission, req.Msg.GroupId)
	if err != nil {
		return nil, toConnectError(err)
	}
	p, err := periodOrCurrent(req.Msg.PeriodId, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}

	status, err := s.tracker.Status(ctx, middleware.GetUserID(ctx), group.ID, p.String())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetPaymentStatusResponse{PeriodId: p.String(), Status: string(status)}), nil
}

// StartPayoutOnboarding returns a link where a group owner connects the
// account that receives entry fees.
func (s *PaymentService) StartPayoutOnboarding(ctx context.Context, req *connect.Request[api.StartPayoutOnboardingRequest]) (*connect.Response[api.StartPayoutOnboardingResponse], error) {
	link, err := s.tracker.StartPayoutOnboarding(ctx, middleware.IdentityFrom(ctx),
		s.payouts.Return, s.payouts.Refresh)
	if err != nil {
		slog.Error("StartPayoutOnboarding failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.StartPayoutOnboardingResponse{Url: link}), nil
}
