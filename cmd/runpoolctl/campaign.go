package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/runpool/pkg/api"
	"github.com/mmynk/runpool/pkg/api/apiconnect"
)

type serverFlags struct {
	server  string
	secret  string
	timeout time.Duration
}

func (f *serverFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.server, "server", envOr("RUNPOOL_SERVER", "http://localhost:8080"), "RunPool server URL")
	cmd.PersistentFlags().StringVar(&f.secret, "secret", envOr("CAMPAIGN_SCHEDULER_SECRET", ""), "scheduler shared secret")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 10*time.Minute, "how long a call may take")
}

func (f *serverFlags) client() (apiconnect.CampaignServiceClient, error) {
	if f.secret == "" {
		return nil, errors.New("a scheduler secret is required (--secret or CAMPAIGN_SCHEDULER_SECRET)")
	}
	return apiconnect.NewCampaignServiceClient(&http.Client{Timeout: f.timeout}, f.server), nil
}

// request attaches the shared secret to msg.
func request[T any](f *serverFlags, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+f.secret)
	return req
}

func campaignCmd() *cobra.Command {
	flags := &serverFlags{}
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Run and inspect e-mail campaigns",
	}
	flags.register(cmd)

	cmd.AddCommand(campaignRunCmd(flags))
	cmd.AddCommand(campaignListCmd(flags))
	return cmd
}

func campaignRunCmd(flags *serverFlags) *cobra.Command {
	var campaignType, periodID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one campaign for a period",
		Long: `Run one campaign for a period. Recipients already reached for the
period are skipped, so running again only retries failed or new recipients.

Examples:
  runpoolctl campaign run --type payment_reminder
  runpoolctl campaign run --type streak_reminder --period 2026-W42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}

			resp, err := client.RunCampaign(cmd.Context(), request(flags, &api.RunCampaignRequest{
				CampaignType: campaignType,
				PeriodId:     periodID,
			}))
			if err != nil {
				return fmt.Errorf("campaign run failed: %w", err)
			}

			printReport(cmd.OutOrStdout(), resp.Msg)
			if resp.Msg.Failed > 0 {
				return fmt.Errorf("%d recipients could not be reached", resp.Msg.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&campaignType, "type", "t", "", "campaign type (see campaign list)")
	cmd.Flags().StringVarP(&periodID, "period", "p", "", "ISO week, e.g. 2026-W42; defaults to the current week")
	cmd.MarkFlagRequired("type")
	return cmd
}

func printReport(w io.Writer, r *api.RunCampaignResponse) {
	fmt.Fprintf(w, "%s %s: sent=%d skipped=%d failed=%d\n", r.CampaignType, r.PeriodId, r.Sent, r.Skipped, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %s: %s\n", f.UserId, f.Reason)
	}
}

func campaignListCmd(flags *serverFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}

			resp, err := client.ListCampaigns(cmd.Context(), request(flags, &api.ListCampaignsRequest{}))
			if err != nil {
				return fmt.Errorf("failed to list campaigns: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tPREDICATE\tDESCRIPTION")
			for _, c := range resp.Msg.Campaigns {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Type, c.Predicate, c.Description)
			}
			return tw.Flush()
		},
	}
}
