// Package models defines the core domain models for RunPool.
//
// # Models
//
//   - User: registered account, optionally connected to a payout account
//   - Group: a weekly challenge with an entry fee, owned by its creator
//   - InviteToken: opaque credential granting join rights to one group
//   - Membership: durable (user, group) pair created by admission
//   - PaymentRecord: entry-fee state for one (user, group, period)
//   - CampaignSendRecord: marker that a campaign reached a user for a period
//   - Activity: a logged run/walk/ride feeding leaderboards and campaigns
//
// # Design Principles
//
//  1. **Integer money**: amounts are minor currency units (cents)
//  2. **IDs over pointers**: relationships use ID strings
//  3. **Unix seconds**: timestamps are int64 Unix seconds, zero means unset
//  4. **Explicit identity**: the caller is passed around as an Identity value,
//     never read from shared state
package models
