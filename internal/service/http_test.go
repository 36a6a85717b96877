package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/mmynk/runpool/pkg/api"
)

// getJoin requests an invite link without following redirects.
func (s *testServer) getJoin(t *testing.T, session, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.url+"/join?token="+url.QueryEscape(token), nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET /join failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestJoinLink(t *testing.T) {
	s := setupTestServer(t)
	owner, _ := s.register(t, "Owner")
	group := s.createGroup(t, owner, 0)
	token := s.invite(t, owner, group.Id)
	alice, _ := s.register(t, "Alice")
	bob, _ := s.register(t, "Bob")

	t.Run("anonymous", func(t *testing.T) {
		resp := s.getJoin(t, "", token)
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", resp.StatusCode)
		}
		loc := resp.Header.Get("Location")
		want := "/signin?next=" + url.QueryEscape("/join?token="+token)
		if loc != want {
			t.Errorf("location: expected %s, got %s", want, loc)
		}
	})

	t.Run("member", func(t *testing.T) {
		resp := s.getJoin(t, alice, token)
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/groups/"+group.Id {
			t.Errorf("location: expected /groups/%s, got %s", group.Id, loc)
		}

		list, err := s.groups.ListGroups(context.Background(), authed(alice, &api.ListGroupsRequest{}))
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(list.Msg.Groups) != 1 {
			t.Errorf("expected Alice in one group, got %d", len(list.Msg.Groups))
		}

		// Following the link again still lands in the group.
		if resp := s.getJoin(t, alice, token); resp.StatusCode != http.StatusSeeOther {
			t.Errorf("revisit: expected 303, got %d", resp.StatusCode)
		}
	})

	tests := []struct {
		name    string
		session string
		token   string
		status  int
		code    string
	}{
		{"consumed", bob, token, http.StatusGone, "token_consumed"},
		{"unknown", bob, "nope", http.StatusBadRequest, "invalid_token"},
		{"empty", bob, "", http.StatusBadRequest, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.getJoin(t, tt.session, tt.token)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("content type: expected JSON, got %s", ct)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != tt.code || body.Message == "" {
				t.Errorf("body: expected code %s, got %+v", tt.code, body)
			}
		})
	}
}
