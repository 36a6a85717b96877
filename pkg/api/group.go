package api

type Group struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Rules     string `json:"rules,omitempty"`
	EntryFee  int64  `json:"entryFee"`
	Currency  string `json:"currency"`
	OwnerId   string `json:"ownerId"`
	CreatedAt int64  `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name     string `json:"name"`
	Rules    string `json:"rules,omitempty"`
	EntryFee int64  `json:"entryFee"`
	Currency string `json:"currency,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupId  string `json:"groupId"`
	Name     string `json:"name"`
	Rules    string `json:"rules,omitempty"`
	EntryFee int64  `json:"entryFee"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type CreateInviteRequest struct {
	GroupId string `json:"groupId"`

	// Reusable invites work for any number of people.
	Reusable bool `json:"reusable,omitempty"`

	// TtlSeconds overrides the server's default lifetime; negative means
	// the invite never expires.
	TtlSeconds int64 `json:"ttlSeconds,omitempty"`
}

type CreateInviteResponse struct {
	Token     string `json:"token"`
	Url       string `json:"url"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

type JoinGroupRequest struct {
	Token string `json:"token"`
}

type JoinGroupResponse struct {
	Group         *Group `json:"group"`
	AlreadyMember bool   `json:"alreadyMember,omitempty"`
}

type LeaveGroupRequest struct {
	GroupId string `json:"groupId"`
}

type LeaveGroupResponse struct{}
