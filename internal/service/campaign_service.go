package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/internal/campaign"
	"github.com/mmynk/runpool/pkg/api"
	"github.com/mmynk/runpool/pkg/api/apiconnect"
)

// CampaignService implements the Connect CampaignService. It is meant for
// the scheduler and operators and sits behind the shared-secret boundary.
type CampaignService struct {
	apiconnect.UnimplementedCampaignServiceHandler
	dispatcher *campaign.Dispatcher
	now        func() time.Time
}

func NewCampaignService(dispatcher *campaign.Dispatcher) *CampaignService {
	return &CampaignService{dispatcher: dispatcher, now: time.Now}
}

// RunCampaign runs one campaign for a period. A cancelled run still
// reports what it did before the error.
func (s *CampaignService) RunCampaign(ctx context.Context, req *connect.Request[api.RunCampaignRequest]) (*connect.Response[api.RunCampaignResponse], error) {
	p, err := periodOrCurrent(req.Msg.PeriodId, s.now())
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("RunCampaign request received", "campaign", req.Msg.CampaignType, "period", p.String())

	report, err := s.dispatcher.Run(ctx, req.Msg.CampaignType, p.String())
	if err != nil {
		if report != nil {
			slog.Warn("Campaign run interrupted",
				"campaign", report.Campaign, "sent", report.Sent, "failed", report.Failed, "error", err)
		}
		return nil, toConnectError(err)
	}

	resp := &api.RunCampaignResponse{
		CampaignType: report.Campaign,
		PeriodId:     report.Period,
		Sent:         report.Sent,
		Skipped:      report.Skipped,
		Failed:       report.Failed,
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, &api.CampaignFailure{UserId: f.UserID, Reason: f.Reason})
	}
	return connect.NewResponse(resp), nil
}

// ListCampaigns returns the registered campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, req *connect.Request[api.ListCampaignsRequest]) (*connect.Response[api.ListCampaignsResponse], error) {
	list := s.dispatcher.Registry().List()
	out := make([]*api.Campaign, len(list))
	for i, c := range list {
		out[i] = &api.Campaign{Type: c.Type, Description: c.Description, Predicate: c.Predicate}
	}
	return connect.NewResponse(&api.ListCampaignsResponse{Campaigns: out}), nil
}
