package integration

import (
	"fmt"
	"net/http"
	"testing"

	"stockbank/internal/middleware"
	"stockbank/internal/router"
)

type trader struct {
	token     string
	userID    string
	accountID string
}

func (app *testApp) newTrader(t *testing.T, email, balance string) trader {
	t.Helper()
	token, _, userID := app.registerUser(t, email, "password123")
	return trader{token: token, userID: userID, accountID: app.createAccount(t, token, balance)}
}

func (app *testApp) purchase(t *testing.T, tr trader, stockID string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", "/api/v1/securities/purchase",
		fmt.Sprintf(`{"stock_id":%q,"account_id":%q}`, stockID, tr.accountID), tr.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("purchase failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["security"].(map[string]interface{})
}

func (app *testApp) placeOrder(t *testing.T, tr trader, stockID, orderType, amount string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/stock-orders",
		fmt.Sprintf(`{"stock_id":%q,"account_id":%q,"amount":%s,"type":%q}`, stockID, tr.accountID, amount, orderType), tr.token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("place order failed: %d %s", rec.Code, rec.Body.String())
	}
	order := parseJSON(t, rec)["stock_order"].(map[string]interface{})
	if order["status"] != "PENDING" {
		t.Fatalf("expected PENDING order, got %v", order["status"])
	}
	return order["id"].(string)
}

func (app *testApp) getStock(t *testing.T, token, stockID string) map[string]interface{} {
	t.Helper()
	rec := app.request("GET", "/api/v1/stocks/"+stockID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get stock failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["stock"].(map[string]interface{})
}

func (app *testApp) totalItems(t *testing.T, path, token string) int {
	t.Helper()
	rec := app.request("GET", path, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s failed: %d %s", path, rec.Code, rec.Body.String())
	}
	return int(parseJSON(t, rec)["total_items"].(float64))
}

func TestStockFlow_PurchaseMatchAndSettle(t *testing.T) {
	app := setupApp(t)
	stockID := app.createStock(t, "Acme", 5, "100.00")
	seller := app.newTrader(t, "seller@test.com", "1000.00")
	buyer := app.newTrader(t, "buyer@test.com", "500.00")

	// Step 1: Both users buy one unit on the primary market
	sec := app.purchase(t, seller, stockID)
	if sec["purchase_price"].(float64) != 10000 {
		t.Errorf("expected purchase price 10000, got %v", sec["purchase_price"])
	}
	app.purchase(t, buyer, stockID)

	stock := app.getStock(t, buyer.token, stockID)
	if stock["remaining_quantity"].(float64) != 3 {
		t.Errorf("expected 3 remaining, got %v", stock["remaining_quantity"])
	}
	if stock["market_price"].(float64) != 10000 {
		t.Errorf("expected market price 10000, got %v", stock["market_price"])
	}

	// Step 2: Opposing orders
	sellID := app.placeOrder(t, seller, stockID, "SELL", "120.00")
	buyID := app.placeOrder(t, buyer, stockID, "BUY", "115.00")
	ownBuyID := app.placeOrder(t, seller, stockID, "BUY", "90.00")

	// Step 3: Matching returns pending orders of the opposite side
	rec := app.request("GET", "/api/v1/stock-orders/"+buyID+"/matches", "", buyer.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	matches := parseJSON(t, rec)["matches"].([]interface{})
	if len(matches) != 1 || matches[0].(map[string]interface{})["id"] != sellID {
		t.Fatalf("expected the sell order as the only match, got %v", matches)
	}

	rec = app.request("GET", "/api/v1/stock-orders/"+sellID+"/matches", "", seller.token)
	if n := len(parseJSON(t, rec)["matches"].([]interface{})); n != 2 {
		t.Errorf("expected 2 buy orders to match the sell, got %d", n)
	}

	// Step 4: Settling against yourself is refused
	rec = app.request("POST", "/api/v1/stock-orders/"+sellID+"/accept",
		fmt.Sprintf(`{"with_id":%q}`, ownBuyID), seller.token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self accept, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_OWNER" {
		t.Errorf("expected INVALID_OWNER, got %s", code)
	}

	rec = app.request("DELETE", "/api/v1/stock-orders/"+ownBuyID, "", seller.token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 5: A 1% transaction fee is withheld from the seller
	rec = app.admin("PUT", "/api/v1/admin/settings/fees", `{"transaction_fee_bps":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 6: The buyer accepts the sell at its asking price
	rec = app.request("POST", "/api/v1/stock-orders/"+buyID+"/accept",
		fmt.Sprintf(`{"with_id":%q}`, sellID), buyer.token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	settlement := parseJSON(t, rec)["settlement"].(map[string]interface{})
	if settlement["price"].(float64) != 12000 {
		t.Errorf("expected price 12000, got %v", settlement["price"])
	}
	if settlement["fee"].(float64) != 120 {
		t.Errorf("expected fee 120, got %v", settlement["fee"])
	}
	security := settlement["security"].(map[string]interface{})
	if security["owner_id"] != buyer.userID || security["purchase_price"].(float64) != 12000 {
		t.Errorf("unexpected transferred security %v", security)
	}

	if bal := app.balance(t, buyer.token, buyer.accountID); bal != 28000 {
		t.Errorf("expected buyer balance 28000, got %d", bal)
	}
	if bal := app.balance(t, seller.token, seller.accountID); bal != 101880 {
		t.Errorf("expected seller balance 101880, got %d", bal)
	}

	// Step 7: Both orders are completed at the settlement price
	for _, tc := range []struct {
		token, id string
	}{{buyer.token, buyID}, {seller.token, sellID}} {
		rec = app.request("GET", "/api/v1/stock-orders/"+tc.id, "", tc.token)
		order := parseJSON(t, rec)["stock_order"].(map[string]interface{})
		if order["status"] != "COMPLETED" || order["purchase_price"].(float64) != 12000 {
			t.Errorf("expected completed order at 12000, got %v", order)
		}
	}

	rec = app.request("POST", "/api/v1/stock-orders/"+buyID+"/accept",
		fmt.Sprintf(`{"with_id":%q}`, sellID), buyer.token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second accept, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("DELETE", "/api/v1/stock-orders/"+buyID, "", buyer.token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting a completed order, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 8: Ownership moved and the market price follows the trades
	if n := app.totalItems(t, "/api/v1/securities?stock_id="+stockID, seller.token); n != 0 {
		t.Errorf("expected seller to hold 0 units, got %d", n)
	}
	if n := app.totalItems(t, "/api/v1/securities?stock_id="+stockID, buyer.token); n != 2 {
		t.Errorf("expected buyer to hold 2 units, got %d", n)
	}

	stock = app.getStock(t, buyer.token, stockID)
	// (5 * 10000 + 12000 + 11500) / 7
	if stock["market_price"].(float64) != 10500 {
		t.Errorf("expected market price 10500, got %v", stock["market_price"])
	}
	if stock["remaining_quantity"].(float64) != 3 {
		t.Errorf("expected 3 remaining, got %v", stock["remaining_quantity"])
	}

	rec = app.request("GET", "/api/v1/portfolio", "", buyer.token)
	portfolio := parseJSON(t, rec)["portfolio"].(map[string]interface{})
	holdings := portfolio["holdings"].([]interface{})
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %v", holdings)
	}
	h := holdings[0].(map[string]interface{})
	if h["quantity"].(float64) != 2 || h["cost_basis"].(float64) != 22000 || h["market_value"].(float64) != 21000 {
		t.Errorf("unexpected holding %v", h)
	}
	if portfolio["total_gain_loss"].(float64) != -1000 {
		t.Errorf("expected loss of 1000, got %v", portfolio["total_gain_loss"])
	}

	// Step 9: The seller no longer holds Acme and cannot order on it
	rec = app.request("POST", "/api/v1/stock-orders",
		fmt.Sprintf(`{"stock_id":%q,"account_id":%q,"amount":100,"type":"SELL"}`, stockID, seller.accountID), seller.token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-holder, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 10: Purchase and settlement were both notified
	for _, tr := range []trader{buyer, seller} {
		if n := app.totalItems(t, "/api/v1/notifications?unread=true", tr.token); n != 2 {
			t.Errorf("expected 2 notifications for %s, got %d", tr.userID, n)
		}
	}

	// Step 11: The ledger records the trade with its fee
	if n := app.totalItems(t, "/api/v1/accounts/"+seller.accountID+"/transactions?type=fee", seller.token); n != 1 {
		t.Errorf("expected 1 fee entry, got %d", n)
	}
	if n := app.totalItems(t, "/api/v1/accounts/"+buyer.accountID+"/transactions?type=trade_debit", buyer.token); n != 1 {
		t.Errorf("expected 1 trade debit, got %d", n)
	}
}

func TestStockFlow_AdminLifecycle(t *testing.T) {
	app := setupApp(t)
	buyer := app.newTrader(t, "admin-flow@test.com", "300.00")

	rec := app.request("POST", "/api/v1/admin/stocks", `{"name":"Acme","base_quantity":1,"base_price":10}`, buyer.token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without API key, got %d: %s", rec.Code, rec.Body.String())
	}

	stockID := app.createStock(t, "Acme", 1, "100")
	app.purchase(t, buyer, stockID)

	// Sold out until refilled
	rec = app.request("POST", "/api/v1/securities/purchase",
		fmt.Sprintf(`{"stock_id":%q,"account_id":%q}`, stockID, buyer.accountID), buyer.token)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "STOCK_SOLD_OUT" {
		t.Fatalf("expected STOCK_SOLD_OUT, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.admin("POST", "/api/v1/admin/stocks/"+stockID+"/refill", `{"quantity":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	app.purchase(t, buyer, stockID)

	// Disabled stocks are hidden and untradable
	rec = app.admin("POST", "/api/v1/admin/stocks/"+stockID+"/disable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := app.totalItems(t, "/api/v1/stocks", buyer.token); n != 0 {
		t.Errorf("expected disabled stock to be hidden, got %d", n)
	}
	rec = app.admin("GET", "/api/v1/admin/stocks", "")
	if parseJSON(t, rec)["total_items"].(float64) != 1 {
		t.Errorf("expected admin listing to include disabled stock, got %s", rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/securities/purchase",
		fmt.Sprintf(`{"stock_id":%q,"account_id":%q}`, stockID, buyer.accountID), buyer.token)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "DISABLED_STOCK" {
		t.Fatalf("expected DISABLED_STOCK, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.admin("POST", "/api/v1/admin/stocks/"+stockID+"/enable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Price history comes from recorded snapshots
	rec = app.admin("POST", "/api/v1/admin/snapshots", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["recorded"].(float64) != 1 {
		t.Errorf("expected 1 snapshot, got %s", rec.Body.String())
	}
	if n := app.totalItems(t, "/api/v1/stocks/"+stockID+"/prices", buyer.token); n != 1 {
		t.Errorf("expected 1 price point, got %d", n)
	}

	if bal := app.balance(t, buyer.token, buyer.accountID); bal != 10000 {
		t.Errorf("expected balance 10000 after two purchases, got %d", bal)
	}
}

func TestStockFlow_OrderWritesAreThrottled(t *testing.T) {
	app := setupAppWith(t, router.Options{
		AdminAPIKey:  adminKey,
		OrderLimiter: middleware.NewRateLimiter(0.001, 2),
	})
	stockID := app.createStock(t, "Acme", 5, "10")
	tr := app.newTrader(t, "throttle@test.com", "100")

	app.purchase(t, tr, stockID)
	app.placeOrder(t, tr, stockID, "SELL", "12")

	rec := app.request("POST", "/api/v1/stock-orders",
		fmt.Sprintf(`{"stock_id":%q,"account_id":%q,"amount":12,"type":"SELL"}`, stockID, tr.accountID), tr.token)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}

	// Reads are not throttled
	if n := app.totalItems(t, "/api/v1/stock-orders", tr.token); n != 1 {
		t.Errorf("expected 1 order, got %d", n)
	}
}
