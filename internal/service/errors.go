package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/campaign"
	"github.com/mmynk/runpool/internal/invite"
	"github.com/mmynk/runpool/internal/membership"
	"github.com/mmynk/runpool/internal/payment"
	"github.com/mmynk/runpool/internal/period"
	"github.com/mmynk/runpool/internal/storage"
)

var (
	// ErrNotMember is returned when a caller reads a group they are not an
	// active member of.
	ErrNotMember = errors.New("you are not a member of this group")

	// ErrNotOwner is returned when a non-owner calls an admin operation.
	ErrNotOwner = errors.New("only the group owner can do that")

	// ErrPaymentRequired is returned when paid content is requested before
	// the entry fee for the period is paid.
	ErrPaymentRequired = errors.New("pay this week's entry fee to see the leaderboard")

	// ErrFreeGroup is returned when paying into a group without a fee.
	ErrFreeGroup = errors.New("this group has no entry fee")

	// ErrInvalidArgument wraps request validation failures.
	ErrInvalidArgument = errors.New("invalid argument")
)

// codes maps sentinel errors to Connect codes. Order matters only for
// errors wrapping more than one sentinel.
var codes = []struct {
	err  error
	code connect.Code
}{
	{auth.ErrUnauthenticated, connect.CodeUnauthenticated},
	{auth.ErrMissingToken, connect.CodeUnauthenticated},
	{auth.ErrInvalidToken, connect.CodeUnauthenticated},
	{auth.ErrInvalidCredentials, connect.CodeUnauthenticated},

	{invite.ErrInvalidToken, connect.CodeInvalidArgument},
	{period.ErrInvalidPeriod, connect.CodeInvalidArgument},
	{payment.ErrInvalidKey, connect.CodeInvalidArgument},
	{payment.ErrInvalidAmount, connect.CodeInvalidArgument},
	{auth.ErrWeakPassword, connect.CodeInvalidArgument},
	{auth.ErrMissingFields, connect.CodeInvalidArgument},
	{campaign.ErrUnknownCampaign, connect.CodeInvalidArgument},
	{ErrFreeGroup, connect.CodeInvalidArgument},
	{ErrInvalidArgument, connect.CodeInvalidArgument},

	{invite.ErrTokenConsumed, connect.CodeFailedPrecondition},
	{membership.ErrOwnerCannotLeave, connect.CodeFailedPrecondition},
	{membership.ErrNotMember, connect.CodeFailedPrecondition},

	{invite.ErrGroupNotFound, connect.CodeNotFound},
	{membership.ErrGroupNotFound, connect.CodeNotFound},
	{storage.ErrNotFound, connect.CodeNotFound},

	{invite.ErrNotOwner, connect.CodePermissionDenied},
	{ErrNotMember, connect.CodePermissionDenied},
	{ErrNotOwner, connect.CodePermissionDenied},
	{ErrPaymentRequired, connect.CodePermissionDenied},

	{auth.ErrEmailExists, connect.CodeAlreadyExists},
	{storage.ErrConflict, connect.CodeAlreadyExists},

	{payment.ErrNotConfigured, connect.CodeUnavailable},
	{storage.ErrTransient, connect.CodeUnavailable},
	{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
	{context.Canceled, connect.CodeCanceled},
}

// toConnectError maps err to a Connect error. Errors without a known
// sentinel are internal.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return connect.CodeInternal
}
