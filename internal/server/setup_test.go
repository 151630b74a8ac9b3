package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/clock"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/repository"
	"fintrack/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// testApp holds the full application stack for flow tests.
type testApp struct {
	Router    *gin.Engine
	Publisher *events.MemoryPublisher
}

// setupApp creates the API backed by an isolated in-memory SQLite database
// with the clock pinned to 2024-03-15.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	pub := &events.MemoryPublisher{}
	clk := clock.Fixed(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))

	svc := NewServices(repository.NewStore(db), clk, pub)
	return &testApp{Router: NewRouter(svc), Publisher: pub}
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

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a fresh user and returns the token.
func (app *testApp) registerUser(t *testing.T) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"password123"}`,
		strings.ToLower(gofakeit.Username())+gofakeit.DigitN(6), gofakeit.DigitN(6)+gofakeit.Email())
	rec := app.request(http.MethodPost, "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// create posts body to path and returns the ID of the object stored under key.
func (app *testApp) create(t *testing.T, token, path, key, body string) string {
	t.Helper()
	rec := app.request(http.MethodPost, path, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s failed: %d %s", path, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)[key].(map[string]interface{})["id"].(string)
}

func (app *testApp) createAccount(t *testing.T, token, name, accountType, balance string) string {
	t.Helper()
	return app.create(t, token, "/api/v1/accounts", "account",
		fmt.Sprintf(`{"name":%q,"type":%q,"initial_balance":%q}`, name, accountType, balance))
}

// balance fetches an account and returns its balance.
func (app *testApp) balance(t *testing.T, token, accountID string) decimal.Decimal {
	t.Helper()
	rec := app.request(http.MethodGet, "/api/v1/accounts/"+accountID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account failed: %d %s", rec.Code, rec.Body.String())
	}
	return decimalField(t, parseJSON(t, rec)["account"], "balance")
}

func decimalField(t *testing.T, obj interface{}, key string) decimal.Decimal {
	t.Helper()
	raw := fmt.Sprint(obj.(map[string]interface{})[key])
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("field %s is not a decimal: %q", key, raw)
	}
	return d
}

func assertBalance(t *testing.T, app *testApp, token, accountID, want string) {
	t.Helper()
	got := app.balance(t, token, accountID)
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected balance %s, got %s", want, got)
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok || errObj["code"] != code {
		t.Errorf("expected error code %q, got %s", code, rec.Body.String())
	}
}
