package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/models"
)

func newJWT(t *testing.T) *auth.JWTManager {
	t.Helper()
	m, err := auth.NewJWTManager("middleware-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return m
}

func TestSession(t *testing.T) {
	jwtManager := newJWT(t)
	user := models.NewUser("alice@example.com", "Alice", "hash")
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer " + token, "", user.ID},
		{"cookie", "", token, user.ID},
		{"bearer wins", "Bearer " + token, "garbage", user.ID},
		{"anonymous", "", "", ""},
		{"invalid token", "Bearer garbage", "", ""},
		{"wrong scheme", "Basic " + token, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Session(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/join?token=x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("user: expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewSessionCookie(t *testing.T) {
	c := NewSessionCookie("tok", 2*time.Hour, true)
	if c.Name != SessionCookie || c.Value != "tok" {
		t.Errorf("unexpected cookie: %+v", c)
	}
	if c.MaxAge != 7200 || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status to pass through, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/runpool.v1.GroupService/GetGroup", nil))
	if called {
		t.Error("preflight should not reach the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on preflight")
	}
}
