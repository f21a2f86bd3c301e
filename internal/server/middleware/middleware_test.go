package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ebraholidays/voyager/internal/model"
	"github.com/ebraholidays/voyager/internal/service"
	"github.com/ebraholidays/voyager/internal/store"
)

func TestRequestIDGenerated(t *testing.T) {
	var ctxID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	headerID := rec.Header().Get("X-Request-ID")
	if headerID == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}
	if ctxID != headerID {
		t.Errorf("context ID %q does not match header ID %q", ctxID, headerID)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("X-Request-ID: got %q, want the client value", got)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty ID for bare context, got %q", got)
	}
}

func newAuthFixture(t *testing.T) (*service.AuthService, *model.Admin) {
	t.Helper()
	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hash, err := service.HashPassword("supersecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{Email: "admin@example.com", PasswordHash: hash, Name: "Admin"}
	if err := st.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return service.NewAuthService(st, "middleware-test-secret", time.Hour), admin
}

func TestAuthenticate(t *testing.T) {
	authSvc, admin := newAuthFixture(t)
	token, err := authSvc.IssueToken(admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var seen *model.Admin
	handler := Authenticate(authSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAdmin(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"no header", "", http.StatusUnauthorized, "Not authorized, no token"},
		{"wrong scheme", "Basic abc123", http.StatusUnauthorized, "Not authorized, no token"},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "Not authorized, token failed"},
		{"valid token", "Bearer " + token, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantMessage != "" {
				var body struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("unmarshal error body: %v", err)
				}
				if body.Message != tt.wantMessage {
					t.Errorf("message: got %q, want %q", body.Message, tt.wantMessage)
				}
				if seen != nil {
					t.Error("handler should not run on auth failure")
				}
			} else {
				if seen == nil || seen.ID != admin.ID {
					t.Errorf("expected admin %d in context, got %+v", admin.ID, seen)
				}
			}
		})
	}
}

func TestAuthenticateRevokedToken(t *testing.T) {
	authSvc, admin := newAuthFixture(t)
	token, err := authSvc.IssueToken(admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if err := authSvc.Logout(context.Background(), admin.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	handler := Authenticate(authSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a revoked token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusNotFound, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/some/path", nil))

			out := buf.String()
			if !strings.Contains(out, "level="+tt.wantLevel) {
				t.Errorf("expected level %s in log line: %s", tt.wantLevel, out)
			}
			if !strings.Contains(out, "path=/some/path") {
				t.Errorf("expected request path in log line: %s", out)
			}
		})
	}
}
