package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qepting91/reddit-collector/internal/domain"
)

// mockTokenServer answers the client-credentials exchange.
type mockTokenServer struct {
	t          *testing.T
	clientID   string
	secret     string
	userAgent  string
	statusCode int
	body       string
	calls      int
}

func (s *mockTokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls++
	if r.Method != http.MethodPost {
		s.t.Errorf("expected POST request, got %s", r.Method)
	}
	if ua := r.Header.Get("User-Agent"); ua != s.userAgent {
		s.t.Errorf("expected User-Agent %q, got %q", s.userAgent, ua)
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != s.clientID || pass != s.secret {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Unauthorized", "error": 401}`)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.t.Fatalf("failed to parse form: %v", err)
	}
	if gt := r.Form.Get("grant_type"); gt != "client_credentials" {
		s.t.Errorf("expected grant_type client_credentials, got %q", gt)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.statusCode)
	fmt.Fprint(w, s.body)
}

func newTokenServer(t *testing.T, status int, body string) (*mockTokenServer, *httptest.Server) {
	t.Helper()
	ms := &mockTokenServer{
		t:          t,
		clientID:   "app-id",
		secret:     "app-secret",
		userAgent:  "collector-test/1.0",
		statusCode: status,
		body:       body,
	}
	srv := httptest.NewServer(ms)
	t.Cleanup(srv.Close)
	return ms, srv
}

func TestAuthenticate_Success(t *testing.T) {
	_, srv := newTokenServer(t, http.StatusOK,
		`{"access_token": "tok-123", "token_type": "bearer", "expires_in": 3600, "scope": "*"}`)

	before := time.Now()
	cred, err := Authenticate(context.Background(), AuthConfig{
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		UserAgent:    "collector-test/1.0",
		TokenURL:     srv.URL,
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if cred.AccessToken != "tok-123" {
		t.Fatalf("expected token tok-123, got %q", cred.AccessToken)
	}
	if cred.ClientID != "app-id" || cred.UserAgent != "collector-test/1.0" {
		t.Fatalf("unexpected credential %s", cred)
	}
	if cred.Expiry.Before(before.Add(59*time.Minute)) || cred.Expiry.After(time.Now().Add(61*time.Minute)) {
		t.Fatalf("unexpected expiry %v", cred.Expiry)
	}
	if cred.Expired(time.Now()) {
		t.Fatal("fresh credential reported expired")
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	ms, srv := newTokenServer(t, http.StatusOK, `{"access_token": "never"}`)

	_, err := Authenticate(context.Background(), AuthConfig{
		ClientID:     "app-id",
		ClientSecret: "wrong",
		UserAgent:    "collector-test/1.0",
		TokenURL:     srv.URL,
	})
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", authErr.StatusCode)
	}
	if ms.calls != 1 {
		t.Fatalf("expected exactly one exchange, got %d", ms.calls)
	}
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	_, srv := newTokenServer(t, http.StatusOK, `{"token_type": "bearer", "expires_in": 3600}`)

	_, err := Authenticate(context.Background(), AuthConfig{
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		UserAgent:    "collector-test/1.0",
		TokenURL:     srv.URL,
	})
	if domain.ExitCode(err) != 3 {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestAuthenticate_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Authenticate(context.Background(), AuthConfig{
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		UserAgent:    "collector-test/1.0",
		TokenURL:     url,
	})
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.StatusCode != 0 {
		t.Fatalf("expected no status code on network failure, got %d", authErr.StatusCode)
	}
}
