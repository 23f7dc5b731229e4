package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stockbank/internal/logger"
	"stockbank/internal/router"
	"stockbank/internal/services"
	"stockbank/internal/testutil"
	"stockbank/internal/validator"
)

const adminKey = "integration-admin-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	return setupAppWith(t, router.Options{AdminAPIKey: adminKey})
}

func setupAppWith(t *testing.T, opts router.Options) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db, accountService)
	settingService := services.NewSettingService(db, services.FeeSettings{})
	notificationService := services.NewNotificationService(db)

	engine := router.New(router.Services{
		User:          services.NewUserService(db),
		Account:       accountService,
		Transaction:   transactionService,
		Stock:         services.NewStockService(db),
		StockOrder:    services.NewStockOrderService(db, transactionService, settingService, notificationService),
		Security:      services.NewSecurityService(db, transactionService, settingService, notificationService),
		Notification:  notificationService,
		PriceSnapshot: services.NewPriceSnapshotService(db),
		Setting:       settingService,
		Audit:         services.NewAuditService(db),
	}, opts)

	return &testApp{DB: db, Router: engine}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// admin makes a request with the admin API key.
func (app *testApp) admin(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", adminKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	return errObj["code"].(string)
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createAccount opens an account with the given initial balance (currency units) and returns its ID.
func (app *testApp) createAccount(t *testing.T, token, balance string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/accounts", fmt.Sprintf(`{"name":"Trading","initial_balance":%s}`, balance), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["account"].(map[string]interface{})["id"].(string)
}

// createStock issues a stock through the admin API and returns its ID.
func (app *testApp) createStock(t *testing.T, name string, quantity int, price string) string {
	t.Helper()
	rec := app.admin("POST", "/api/v1/admin/stocks",
		fmt.Sprintf(`{"name":%q,"base_quantity":%d,"base_price":%s}`, name, quantity, price))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create stock failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["stock"].(map[string]interface{})["id"].(string)
}

// balance returns the balance of an account in cents.
func (app *testApp) balance(t *testing.T, token, accountID string) int64 {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account failed: %d %s", rec.Code, rec.Body.String())
	}
	return int64(parseJSON(t, rec)["account"].(map[string]interface{})["balance"].(float64))
}
