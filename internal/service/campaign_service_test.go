package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/pkg/api"
)

func TestCampaignServiceRequiresSecret(t *testing.T) {
	s := setupTestServer(t)

	_, err := s.campaign.ListCampaigns(context.Background(), connect.NewRequest(&api.ListCampaignsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.campaign.ListCampaigns(context.Background(), authed("wrong", &api.ListCampaignsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	// User sessions are not scheduler credentials.
	user, _ := s.register(t, "Alice")
	_, err = s.campaign.ListCampaigns(context.Background(), authed(user, &api.ListCampaignsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestListCampaigns(t *testing.T) {
	s := setupTestServer(t)

	resp, err := s.campaign.ListCampaigns(context.Background(), authed(testSchedulerSecret, &api.ListCampaignsRequest{}))
	if err != nil {
		t.Fatalf("ListCampaigns failed: %v", err)
	}

	got := map[string]bool{}
	for _, c := range resp.Msg.Campaigns {
		got[c.Type] = true
	}
	for _, want := range []string{"payment_reminder", "comeback_nudge", "streak_reminder", "achievement_nudge"} {
		if !got[want] {
			t.Errorf("expected campaign %s in %v", want, got)
		}
	}
}

func TestRunCampaign(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)
	s.join(t, owner, group.Id, "Alice")
	week := lastWeek().String()

	tests := []struct {
		name string
		req  *api.RunCampaignRequest
		code connect.Code
	}{
		{"unknown type", &api.RunCampaignRequest{CampaignType: "spam", PeriodId: week}, connect.CodeInvalidArgument},
		{"bad period", &api.RunCampaignRequest{CampaignType: "streak_reminder", PeriodId: "last week"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.campaign.RunCampaign(context.Background(), authed(testSchedulerSecret, tt.req))
			assertCode(t, err, tt.code)
		})
	}

	first, err := s.campaign.RunCampaign(context.Background(), authed(testSchedulerSecret, &api.RunCampaignRequest{
		CampaignType: "streak_reminder",
		PeriodId:     week,
	}))
	if err != nil {
		t.Fatalf("RunCampaign failed: %v", err)
	}
	if first.Msg.CampaignType != "streak_reminder" || first.Msg.PeriodId != week {
		t.Errorf("unexpected report header: %+v", first.Msg)
	}
	if first.Msg.Failed != 0 {
		t.Errorf("expected no failures, got %+v", first.Msg.Failures)
	}

	second, err := s.campaign.RunCampaign(context.Background(), authed(testSchedulerSecret, &api.RunCampaignRequest{
		CampaignType: "streak_reminder",
		PeriodId:     week,
	}))
	if err != nil {
		t.Fatalf("second RunCampaign failed: %v", err)
	}
	if second.Msg.Sent != 0 {
		t.Errorf("expected nobody to be reached twice, got %d sends", second.Msg.Sent)
	}
}
