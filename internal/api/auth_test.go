package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/ratewise/ratewise-core/internal/auth"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice@example.com", "correct-password", auth.RoleNormalUser)

	rec := env.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Error("response should carry an access token")
	}
	if body["refresh_token"] == "" || body["refresh_token"] == nil {
		t.Error("response should carry a refresh token")
	}
	if body["token_type"] != "Bearer" {
		t.Errorf("token_type = %v, want Bearer", body["token_type"])
	}
}

func TestLogin_Failures(t *testing.T) {
	// Unknown email, wrong password, and deactivated account must be
	// indistinguishable on the wire.
	env := newTestEnv(t)
	env.createUser(t, "bob@example.com", "right", auth.RoleNormalUser)

	inactive := env.createUser(t, "gone@example.com", "right", auth.RoleNormalUser)
	inactive.IsActive = false
	if err := env.users.Update(context.Background(), inactive); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "whatever"},
		{"wrong password", "bob@example.com", "wrong"},
		{"deactivated account", "gone@example.com", "right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if code := errorCode(t, rec); code != ErrCodeInvalidCredentials {
				t.Errorf("code = %q, want %q", code, ErrCodeInvalidCredentials)
			}
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	account := env.createUser(t, "carol@example.com", "pw", auth.RoleNormalUser)

	pair, err := env.issuer.IssuePair(account)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	rec := env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// The consumed refresh token is single-use.
	rec = env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, rec); code != ErrCodeTokenRevoked {
		t.Errorf("code = %q, want %q", code, ErrCodeTokenRevoked)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	account := env.createUser(t, "dave@example.com", "pw", auth.RoleNormalUser)
	token := env.tokenFor(t, account)

	rec := env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": token,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, rec); code != ErrCodeWrongTokenKind {
		t.Errorf("code = %q, want %q", code, ErrCodeWrongTokenKind)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	account := env.createUser(t, "erin@example.com", "pw", auth.RoleNormalUser)

	pair, err := env.issuer.IssuePair(account)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	rec := env.request(t, http.MethodPost, "/api/v1/auth/logout", pair.AccessToken, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// Both halves of the pair are dead immediately.
	rec = env.request(t, http.MethodGet, "/api/v1/auth/me", pair.AccessToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("access token after logout status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token after logout status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	account := env.createUser(t, "frank@example.com", "pw", auth.RoleStoreOwner)
	token := env.tokenFor(t, account)

	rec := env.request(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body["id"] != account.ID {
		t.Errorf("id = %v, want %q", body["id"], account.ID)
	}
	if body["email"] != "frank@example.com" {
		t.Errorf("email = %v, want frank@example.com", body["email"])
	}
	if body["role"] != string(auth.RoleStoreOwner) {
		t.Errorf("role = %v, want %q", body["role"], auth.RoleStoreOwner)
	}
}
