package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/middleware"
	"stockbank/internal/models"
	"stockbank/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn            func(email, password, firstName, lastName string) (*models.User, error)
	getUserByEmailFn        func(email string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	verifyPasswordFn        func(user *models.User, password string) bool
	attemptLoginFn          func(email, password string) (*models.User, error)
	storeRefreshTokenHashFn func(userID string, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
}

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID string, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

type mockAuditService struct{}

func (m *mockAuditService) Log(_, _, _, _, _ string, _ map[string]interface{}) {}

// --- test helpers ---

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	otherID     = "22222222-2222-2222-2222-222222222222"
	testStockID = "33333333-3333-3333-3333-333333333333"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

// tokenStore mimics the single refresh hash kept per user.
type tokenStore struct{ hash string }

func (s *tokenStore) service(user *models.User) *mockUserService {
	return &mockUserService{
		createUserFn:          func(_, _, _, _ string) (*models.User, error) { return user, nil },
		attemptLoginFn:        func(_, _ string) (*models.User, error) { return user, nil },
		getUserByIDFn:         func(_ string) (*models.User, error) { return user, nil },
		getRefreshTokenHashFn: func(_ string) (string, error) { return s.hash, nil },
		storeRefreshTokenHashFn: func(_ string, hash string) error {
			s.hash = hash
			return nil
		},
	}
}

func issuedTokens(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh string) {
	t.Helper()
	result := parseJSON(t, rec)
	access, _ = result["access_token"].(string)
	refresh, _ = result["refresh_token"].(string)
	if access == "" || refresh == "" {
		t.Fatalf("expected both tokens, got %v", result)
	}
	return access, refresh
}

func TestAuthHandler_IssueStoresRefreshHash(t *testing.T) {
	user := &models.User{Base: models.Base{ID: testUserID}, Email: "test@example.com"}

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/auth/register", http.StatusCreated},
		{"/auth/login", http.StatusOK},
	} {
		t.Run(tc.path, func(t *testing.T) {
			store := &tokenStore{}
			r := setupAuthRouter(NewAuthHandler(store.service(user), &mockAuditService{}))

			rec := doRequest(r, "POST", tc.path, `{"email":"test@example.com","password":"password123"}`)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			_, refresh := issuedTokens(t, rec)
			if store.hash != middleware.HashToken(refresh) {
				t.Error("stored hash does not match the issued refresh token")
			}
		})
	}

	t.Run("returns 500 when token storage fails", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(_, _, _, _ string) (*models.User, error) { return user, nil },
			storeRefreshTokenHashFn: func(_ string, _ string) error {
				return fmt.Errorf("db connection lost")
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Errors(t *testing.T) {
	failing := &mockUserService{
		createUserFn:   func(_, _, _, _ string) (*models.User, error) { return nil, apperrors.ErrDuplicateEmail },
		attemptLoginFn: func(_, _ string) (*models.User, error) { return nil, apperrors.ErrAccountLocked },
		getUserByIDFn:  func(_ string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"register bad email", "POST", "/auth/register", `{"email":"not-an-email","password":"password123"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"register short password", "POST", "/auth/register", `{"email":"test@example.com","password":"short"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"register duplicate", "POST", "/auth/register", `{"email":"dup@example.com","password":"password123"}`, http.StatusConflict, "DUPLICATE_EMAIL"},
		{"login locked", "POST", "/auth/login", `{"email":"locked@example.com","password":"password123"}`, http.StatusLocked, "ACCOUNT_LOCKED"},
		{"profile missing user", "GET", "/profile", "", http.StatusNotFound, "USER_NOT_FOUND"},
		{"refresh without token", "POST", "/auth/refresh", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupAuthRouter(NewAuthHandler(failing, &mockAuditService{}))

			rec := doRequest(r, tt.method, tt.path, tt.body)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), tt.code)
		})
	}
}

func TestAuthHandler_GetProfile(t *testing.T) {
	userSvc := &mockUserService{
		getUserByIDFn: func(id string) (*models.User, error) {
			return &models.User{Base: models.Base{ID: id}, Email: "test@example.com", FirstName: "John"}, nil
		},
	}
	r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/profile", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["id"] != testUserID || user["first_name"] != "John" {
		t.Errorf("unexpected profile %v", user)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	user := &models.User{Base: models.Base{ID: testUserID}, Email: "test@example.com"}

	t.Run("rotates the pair and retires the presented token", func(t *testing.T) {
		store := &tokenStore{}
		r := setupAuthRouter(NewAuthHandler(store.service(user), &mockAuditService{}))

		loginAccess, first := issuedTokens(t, doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, first))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		access, second := issuedTokens(t, rec)
		if access == loginAccess || second == first {
			t.Fatal("expected distinct tokens within the same second")
		}
		if store.hash != middleware.HashToken(second) {
			t.Error("stored hash was not rotated")
		}

		rec = doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, first))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 on replay, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TOKEN")
	})

	t.Run("back to back refresh tokens carry distinct ids", func(t *testing.T) {
		a, err := middleware.GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("failed to generate refresh token: %v", err)
		}
		b, _ := middleware.GenerateRefreshToken(user)
		ca, err := middleware.ValidateRefreshToken(a)
		if err != nil {
			t.Fatalf("failed to validate refresh token: %v", err)
		}
		cb, _ := middleware.ValidateRefreshToken(b)
		if a == b || ca.ID == "" || ca.ID == cb.ID {
			t.Errorf("expected unique jti, got %q and %q", ca.ID, cb.ID)
		}
	})

	t.Run("rejects an access token and an unknown hash", func(t *testing.T) {
		access, _ := middleware.GenerateAccessToken(user)
		refresh, _ := middleware.GenerateRefreshToken(user)
		store := &tokenStore{hash: "stale"}
		r := setupAuthRouter(NewAuthHandler(store.service(user), &mockAuditService{}))

		for _, token := range []string{access, refresh} {
			rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_TOKEN")
		}
	})
}
