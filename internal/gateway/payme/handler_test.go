package payme

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/khiva-labs/hotelier/internal/domain"
	"go.uber.org/zap"
)

const (
	testMerchantID = "merchant-1"
	testSecretKey  = "test-secret"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := newTestService(t)
	handler := NewHandler(env.service, testMerchantID, testSecretKey, zap.NewNop())

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, env
}

func authHeader(login, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+password))
}

func doRequest(t *testing.T, router *gin.Engine, auth string, body []byte) Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payme", bytes.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func rpcBody(t *testing.T, id int, method string, params Params) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"id": id, "method": method, "params": params})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return body
}

func TestHandlerAuthCheckedBeforeParse(t *testing.T) {
	router, _ := newTestRouter(t)

	// Garbage body with bad credentials must fail on auth, not parse.
	resp := doRequest(t, router, authHeader(testMerchantID, "wrong"), []byte("{not json"))
	if resp.Error == nil || resp.Error.Code != CodeUnauthorized {
		t.Errorf("expected code %d, got %+v", CodeUnauthorized, resp.Error)
	}

	resp = doRequest(t, router, "", rpcBody(t, 1, "CheckTransaction", Params{ID: "t1"}))
	if resp.Error == nil || resp.Error.Code != CodeUnauthorized {
		t.Errorf("expected code %d, got %+v", CodeUnauthorized, resp.Error)
	}
}

func TestHandlerParseError(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(t, router, authHeader(testMerchantID, testSecretKey), []byte("{not json"))
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Errorf("expected code %d, got %+v", CodeParseError, resp.Error)
	}
}

func TestHandlerMethodNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(t, router, authHeader(testMerchantID, testSecretKey),
		rpcBody(t, 1, "DoSomething", Params{}))
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected code %d, got %+v", CodeMethodNotFound, resp.Error)
	}
}

func TestHandlerCreatePerformReplay(t *testing.T) {
	router, env := newTestRouter(t)
	env.seedBooking(t, 1, 10_000_000, 0, domain.BookingStatusConfirmed)

	auth := authHeader(testMerchantID, testSecretKey)
	params := Params{
		ID:      "t1",
		Time:    time.Now().UTC().UnixMilli(),
		Amount:  5_000_000,
		Account: map[string]any{accountField: "1"},
	}

	resp := doRequest(t, router, auth, rpcBody(t, 1, "CreateTransaction", params))
	if resp.Error != nil {
		t.Fatalf("create failed: %+v", resp.Error)
	}

	first := doRequest(t, router, auth, rpcBody(t, 2, "PerformTransaction", params))
	if first.Error != nil {
		t.Fatalf("perform failed: %+v", first.Error)
	}
	second := doRequest(t, router, auth, rpcBody(t, 3, "PerformTransaction", params))
	if second.Error != nil {
		t.Fatalf("replayed perform failed: %+v", second.Error)
	}

	firstJSON, _ := json.Marshal(first.Result)
	secondJSON, _ := json.Marshal(second.Result)
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Errorf("expected identical replay, got %s then %s", firstJSON, secondJSON)
	}

	if env.payments.Count() != 1 {
		t.Errorf("expected exactly 1 payment, got %d", env.payments.Count())
	}
	booking, _ := env.bookings.FindByID(context.Background(), 1)
	if booking.PaidAmount != 5_000_000 {
		t.Errorf("expected paid amount 5000000, got %d", booking.PaidAmount)
	}
}

func TestHandlerEchoesRequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(t, router, authHeader(testMerchantID, testSecretKey),
		rpcBody(t, 42, "CheckTransaction", Params{ID: "missing"}))
	if string(resp.ID) != "42" {
		t.Errorf("expected echoed id 42, got %s", resp.ID)
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("expected jsonrpc 2.0, got %q", resp.JSONRPC)
	}
}
