package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/volunteer-scheduler/internal/application"
)

type fakeTokenValidator struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (f *fakeTokenValidator) ValidateToken(_ context.Context, token string) (application.Principal, error) {
	f.tokens = append(f.tokens, token)
	return f.principal, f.err
}

func TestRequireToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		header         string
		validator      *fakeTokenValidator
		expectedStatus int
		expectNext     bool
	}{
		{
			name:           "missing header",
			validator:      &fakeTokenValidator{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "non bearer scheme",
			header:         "Basic dXNlcjpwYXNz",
			validator:      &fakeTokenValidator{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "rejected token",
			header:         "Bearer expired",
			validator:      &fakeTokenValidator{err: application.ErrInvalidToken},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "validator failure",
			header:         "Bearer token",
			validator:      &fakeTokenValidator{err: errors.New("store offline")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "valid token",
			header:         "bearer good-token",
			validator:      &fakeTokenValidator{principal: application.Principal{UserID: "u1"}},
			expectedStatus: http.StatusNoContent,
			expectNext:     true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var called bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				principal, ok := PrincipalFromContext(r.Context())
				if !ok || principal.UserID != "u1" {
					t.Errorf("expected principal in context, got %+v", principal)
				}
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/calendar", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			RequireToken(tc.validator, discardLogger())(next).ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if called != tc.expectNext {
				t.Fatalf("next called = %v, want %v", called, tc.expectNext)
			}
			if tc.expectNext && tc.validator.tokens[0] != "good-token" {
				t.Fatalf("expected token to be stripped of scheme, got %q", tc.validator.tokens[0])
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Error("expected request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	for _, want := range []string{"request started", "request completed", "status=418", "path=/healthz", "request_id=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}

func TestPrincipalAuth(t *testing.T) {
	t.Parallel()

	auth := PrincipalAuth()
	if _, ok := auth.CurrentUser(context.Background()); ok {
		t.Fatal("expected no principal on a bare context")
	}

	ctx := ContextWithPrincipal(context.Background(), application.Principal{UserID: "u9", Email: "u9@example.com"})
	principal, ok := auth.CurrentUser(ctx)
	if !ok || principal.UserID != "u9" {
		t.Fatalf("expected u9, got %+v ok=%v", principal, ok)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
