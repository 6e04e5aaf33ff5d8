package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/scrap-exchange/internal/config"
	"github.com/shinyyama/scrap-exchange/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	srv := New(&config.Config{
		ExpirationWindow: 7 * 24 * time.Hour,
		EventWorkers:     1,
		EventQueueSize:   16,
		AdminUIDs:        []string{"ops"},
	}, gdb, Deps{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = sqlDB.Close()
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path, uid string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-User-ID", uid)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	out := map[string]interface{}{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code, out
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodGet, "/healthz", "", nil)
	if code != http.StatusOK {
		t.Fatalf("healthz=%d", code)
	}
	code, _ = do(t, srv, http.MethodPost, "/api/listings", "", map[string]interface{}{"title": "x"})
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous create=%d want 401", code)
	}

	code, listing := do(t, srv, http.MethodPost, "/api/listings", "seller-1", map[string]interface{}{
		"title":         "Aluminium cans",
		"category":      "Metal",
		"weightKg":      12.5,
		"expectedPrice": "100",
	})
	if code != http.StatusCreated {
		t.Fatalf("create=%d body=%v", code, listing)
	}
	id, _ := listing["id"].(string)
	if id == "" || listing["status"] != "available" || listing["price"] != "100.00" {
		t.Fatalf("listing=%v", listing)
	}

	code, body := do(t, srv, http.MethodPost, "/api/listings/"+id+"/purchase", "buyer-1", map[string]string{"paymentMethod": "upi"})
	if code != http.StatusUnprocessableEntity || errorCode(body) != "payment_config_missing" {
		t.Fatalf("upi without handle=%d %v", code, body)
	}

	code, tx := do(t, srv, http.MethodPost, "/api/listings/"+id+"/purchase", "buyer-1", map[string]string{"paymentMethod": "cash"})
	if code != http.StatusCreated || tx["status"] != "pending" || tx["amount"] != "100.00" {
		t.Fatalf("initiate=%d %v", code, tx)
	}
	code, body = do(t, srv, http.MethodPost, "/api/listings/"+id+"/purchase", "buyer-2", map[string]string{"paymentMethod": "cash"})
	if code != http.StatusConflict || errorCode(body) != "already_reserved" {
		t.Fatalf("second initiate=%d %v", code, body)
	}

	code, body = do(t, srv, http.MethodGet, "/api/me/purchases/pending", "buyer-1", nil)
	if code != http.StatusOK {
		t.Fatalf("pending=%d", code)
	}
	if list, _ := body["purchases"].([]interface{}); len(list) != 1 {
		t.Fatalf("pending purchases=%v", body)
	}

	txID, _ := tx["id"].(string)
	code, body = do(t, srv, http.MethodPost, "/api/transactions/"+txID+"/complete", "buyer-2", map[string]string{})
	if code != http.StatusNotFound {
		t.Fatalf("complete by other buyer=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodPost, "/api/transactions/"+txID+"/complete", "buyer-1", map[string]string{})
	if code != http.StatusOK || body["status"] != "completed" {
		t.Fatalf("complete=%d %v", code, body)
	}

	code, body = do(t, srv, http.MethodGet, "/api/listings/"+id, "", nil)
	if code != http.StatusOK || body["status"] != "sold" {
		t.Fatalf("get=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodGet, "/api/me/purchases/completed", "buyer-1", nil)
	if list, _ := body["purchases"].([]interface{}); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("completed=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodGet, "/api/stats", "", nil)
	if code != http.StatusOK || body["completedRevenue"] != "100.00" {
		t.Fatalf("stats=%d %v", code, body)
	}
}

func TestMarketplaceQueryValidation(t *testing.T) {
	srv := newTestServer(t)
	code, body := do(t, srv, http.MethodGet, "/api/marketplace?minWeight=abc", "buyer-1", nil)
	if code != http.StatusBadRequest || errorCode(body) != "bad_request" {
		t.Fatalf("bad minWeight=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodGet, "/api/marketplace?category=metal&minWeight=1", "buyer-1", nil)
	if code != http.StatusOK {
		t.Fatalf("marketplace=%d %v", code, body)
	}
	if list, ok := body["listings"].([]interface{}); !ok || len(list) != 0 {
		t.Fatalf("listings=%v", body)
	}
}

func TestPayeeAndAdminSweep(t *testing.T) {
	srv := newTestServer(t)
	code, body := do(t, srv, http.MethodPut, "/api/me/payee", "seller-1", map[string]string{"upiHandle": "not-a-handle"})
	if code != http.StatusBadRequest {
		t.Fatalf("bad handle=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodPut, "/api/me/payee", "seller-1", map[string]string{"upiHandle": "seller1@okaxis"})
	if code != http.StatusOK || body["upiHandle"] != "seller1@okaxis" {
		t.Fatalf("put payee=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodGet, "/api/me/payee", "seller-2", nil)
	if code != http.StatusOK || body["upiHandle"] != "" {
		t.Fatalf("empty payee=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodPost, "/api/admin/sweep", "seller-1", nil)
	if code != http.StatusForbidden {
		t.Fatalf("sweep by non-admin=%d %v", code, body)
	}
	code, body = do(t, srv, http.MethodPost, "/api/admin/sweep", "ops", nil)
	if code != http.StatusOK || body["expired"] != float64(0) {
		t.Fatalf("sweep=%d %v", code, body)
	}
}

func doRaw(t *testing.T, srv *Server, method, path, uid, raw string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", uid)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec.Code
}

func createListing(t *testing.T, srv *Server, seller, title string) string {
	t.Helper()
	code, body := do(t, srv, http.MethodPost, "/api/listings", seller, map[string]interface{}{
		"title":         title,
		"category":      "Metal",
		"weightKg":      5,
		"expectedPrice": "50",
	})
	if code != http.StatusCreated {
		t.Fatalf("create=%d %v", code, body)
	}
	id, _ := body["id"].(string)
	return id
}

func TestCompleteRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	id := createListing(t, srv, "seller-1", "Steel offcuts")
	code, tx := do(t, srv, http.MethodPost, "/api/listings/"+id+"/purchase", "buyer-1", map[string]string{"paymentMethod": "cash"})
	if code != http.StatusCreated {
		t.Fatalf("initiate=%d %v", code, tx)
	}
	txID, _ := tx["id"].(string)

	if code := doRaw(t, srv, http.MethodPost, "/api/transactions/"+txID+"/complete", "buyer-1", `{"reference":`); code != http.StatusBadRequest {
		t.Fatalf("malformed complete=%d want 400", code)
	}
	code, body := do(t, srv, http.MethodGet, "/api/listings/"+id, "", nil)
	if code != http.StatusOK || body["status"] != "pending" {
		t.Fatalf("listing after malformed complete=%d %v", code, body)
	}
}

func TestTransactionHistoryOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	id := createListing(t, srv, "seller-1", "Copper scrap")
	if code, body := do(t, srv, http.MethodPost, "/api/listings/"+id+"/purchase", "buyer-1", map[string]string{"paymentMethod": "cash"}); code != http.StatusCreated {
		t.Fatalf("initiate=%d %v", code, body)
	}
	if code, body := do(t, srv, http.MethodPost, "/api/listings/"+id+"/cancel", "buyer-1", nil); code != http.StatusOK {
		t.Fatalf("cancel=%d %v", code, body)
	}
	if code, body := do(t, srv, http.MethodPost, "/api/listings/"+id+"/purchase", "buyer-2", map[string]string{"paymentMethod": "cash"}); code != http.StatusCreated {
		t.Fatalf("second initiate=%d %v", code, body)
	}

	tests := []struct {
		name string
		uid  string
		path string
		code int
		want int
	}{
		{"seller sees both attempts", "seller-1", "/api/me/transactions", http.StatusOK, 2},
		{"seller filters cancelled", "seller-1", "/api/me/transactions?status=cancelled", http.StatusOK, 1},
		{"buyer sees own only", "buyer-2", "/api/me/transactions", http.StatusOK, 1},
		{"unknown status", "seller-1", "/api/me/transactions?status=lost", http.StatusBadRequest, 0},
		{"listing log for seller", "seller-1", "/api/listings/" + id + "/transactions", http.StatusOK, 2},
		{"listing log for buyer", "buyer-1", "/api/listings/" + id + "/transactions", http.StatusForbidden, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, srv, http.MethodGet, tt.path, tt.uid, nil)
			if code != tt.code {
				t.Fatalf("code=%d want %d body=%v", code, tt.code, body)
			}
			if code != http.StatusOK {
				return
			}
			if list, _ := body["transactions"].([]interface{}); len(list) != tt.want {
				t.Fatalf("transactions=%d want %d", len(list), tt.want)
			}
		})
	}
}
