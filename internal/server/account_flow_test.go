package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/events"
)

func TestHealthAndAuth(t *testing.T) {
	app := setupApp(t)

	rec := app.request(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.request(http.MethodGet, "/api/v1/accounts", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := app.registerUser(t)
	rec = app.request(http.MethodGet, "/api/v1/profile", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountFlow_DepositWithdraw(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t)
	id := app.createAccount(t, token, "Checking", "CHECKING", "1000")

	rec := app.request(http.MethodPost, "/api/v1/accounts/"+id+"/withdraw", `{"amount":"200"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, id, "800")

	rec = app.request(http.MethodPost, "/api/v1/accounts/"+id+"/deposit", `{"amount":"50"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, id, "850")

	rec = app.request(http.MethodPost, "/api/v1/accounts/"+id+"/withdraw", `{"amount":"900"}`, token)
	assertErrorCode(t, rec, http.StatusBadRequest, "INSUFFICIENT_FUNDS")
	assertBalance(t, app, token, id, "850")

	rec = app.request(http.MethodPost, "/api/v1/accounts/"+id+"/deposit", `{"amount":"-5"}`, token)
	assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_AMOUNT")

	assert.Equal(t, []events.EventType{events.AccountWithdrawn, events.AccountDeposited}, app.Publisher.Types())
}

func TestAccountFlow_CreditCardMayGoNegative(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t)
	id := app.createAccount(t, token, "Visa", "CREDIT_CARD", "0")

	rec := app.request(http.MethodPost, "/api/v1/accounts/"+id+"/withdraw", `{"amount":"120.75"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertBalance(t, app, token, id, "-120.75")
}

func TestAccountFlow_Isolation(t *testing.T) {
	app := setupApp(t)
	owner := app.registerUser(t)
	intruder := app.registerUser(t)
	id := app.createAccount(t, owner, "Savings", "SAVINGS", "500")

	rec := app.request(http.MethodGet, "/api/v1/accounts/"+id, "", intruder)
	assertErrorCode(t, rec, http.StatusNotFound, "ACCOUNT_NOT_FOUND")

	rec = app.request(http.MethodPost, "/api/v1/accounts/"+id+"/withdraw", `{"amount":"500"}`, intruder)
	assertErrorCode(t, rec, http.StatusNotFound, "ACCOUNT_NOT_FOUND")
	assertBalance(t, app, owner, id, "500")

	rec = app.request(http.MethodDelete, "/api/v1/accounts/"+id, "", intruder)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountFlow_DeleteGuard(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t)
	used := app.createAccount(t, token, "Used", "CHECKING", "100")
	unused := app.createAccount(t, token, "Unused", "CASH", "0")

	app.create(t, token, "/api/v1/transactions", "transaction",
		`{"account_id":"`+used+`","type":"EXPENSE","amount":"10"}`)

	rec := app.request(http.MethodDelete, "/api/v1/accounts/"+used, "", token)
	assertErrorCode(t, rec, http.StatusUnprocessableEntity, "ACCOUNT_HAS_TRANSACTIONS")

	rec = app.request(http.MethodDelete, "/api/v1/accounts/"+unused, "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
