package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_RefreshRotation(t *testing.T) {
	app := setupApp(t)

	_, registerRefresh, _ := app.registerUser(t, "auth@test.com", "password123")
	loginAccess, loginRefresh := app.loginUser(t, "auth@test.com", "password123")
	if loginRefresh == registerRefresh {
		t.Fatal("expected login to issue a new refresh token")
	}

	refresh := func(token string) int {
		return app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token), "").Code
	}

	// Each issue replaces the stored hash, so the registration token is dead.
	if code := refresh(registerRefresh); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for superseded registration token, got %d", code)
	}

	rec := app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	rotated := parseJSON(t, rec)
	newAccess := rotated["access_token"].(string)
	newRefresh := rotated["refresh_token"].(string)
	if newAccess == loginAccess || newRefresh == loginRefresh {
		t.Fatal("expected refresh to issue distinct tokens within the same second")
	}

	if rec := app.request("GET", "/api/v1/profile", "", newAccess); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with rotated access token, got %d", rec.Code)
	}
	if code := refresh(loginRefresh); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when replaying a consumed refresh token, got %d", code)
	}
	if code := refresh(newRefresh); code != http.StatusOK {
		t.Fatalf("expected 200 for the rotated refresh token, got %d", code)
	}
}

func TestAuthFlow_Rejections(t *testing.T) {
	app := setupApp(t)
	access, _, _ := app.registerUser(t, "taken@test.com", "password123")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
		code   string
	}{
		{"duplicate email", "POST", "/api/v1/auth/register", `{"email":"taken@test.com","password":"password123"}`, "", http.StatusConflict, "DUPLICATE_EMAIL"},
		{"wrong password", "POST", "/api/v1/auth/login", `{"email":"taken@test.com","password":"wrongpassword"}`, "", http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"access token used to refresh", "POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, access), "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"profile without token", "GET", "/api/v1/profile", "", "", http.StatusUnauthorized, ""},
		{"profile with garbage token", "GET", "/api/v1/profile", "", "invalid-token", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request(tt.method, tt.path, tt.body, tt.token)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.code != "" {
				if code := errorCode(t, rec); code != tt.code {
					t.Errorf("expected %s, got %s", tt.code, code)
				}
			}
		})
	}
}

func TestAuthFlow_AccountLockout(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "lockout@test.com", "password123")

	wrong := `{"email":"lockout@test.com","password":"wrong"}`
	for i := 0; i < 5; i++ {
		if rec := app.request("POST", "/api/v1/auth/login", wrong, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	for _, body := range []string{wrong, `{"email":"lockout@test.com","password":"password123"}`} {
		rec := app.request("POST", "/api/v1/auth/login", body, "")
		if rec.Code != http.StatusLocked {
			t.Fatalf("expected 423 while locked, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "ACCOUNT_LOCKED" {
			t.Errorf("expected ACCOUNT_LOCKED, got %s", code)
		}
	}
}
