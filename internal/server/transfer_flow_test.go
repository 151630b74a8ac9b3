package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"fintrack/internal/events"
)

func transferBody(from, to, amount string) string {
	return fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount":%q}`, from, to, amount)
}

func TestTransferFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t)
	a := app.createAccount(t, token, "Checking", "CHECKING", "200")
	b := app.createAccount(t, token, "Savings", "SAVINGS", "50")

	txID := app.create(t, token, "/api/v1/transactions/transfer", "transaction", transferBody(a, b, "75"))
	assertBalance(t, app, token, a, "125")
	assertBalance(t, app, token, b, "125")

	rec := app.request(http.MethodGet, "/api/v1/transactions/"+txID, "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
	assert.Equal(t, "TRANSFER", tx["type"])
	assert.Equal(t, b, tx["transfer_account_id"])

	rec = app.request(http.MethodDelete, "/api/v1/transactions/"+txID, "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assertBalance(t, app, token, a, "200")
	assertBalance(t, app, token, b, "50")

	rec = app.request(http.MethodGet, "/api/v1/transactions/"+txID, "", token)
	assertErrorCode(t, rec, http.StatusNotFound, "TRANSACTION_NOT_FOUND")

	assert.Equal(t, []events.EventType{events.TransferCompleted, events.TransactionDeleted}, app.Publisher.Types())
}

func TestTransferFlow_Rejections(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t)
	a := app.createAccount(t, token, "Checking", "CHECKING", "200")
	b := app.createAccount(t, token, "Savings", "SAVINGS", "50")

	t.Run("same_account", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/api/v1/transactions/transfer", transferBody(a, a, "10"), token)
		assertErrorCode(t, rec, http.StatusUnprocessableEntity, "SAME_ACCOUNT_TRANSFER")
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		rec := app.request(http.MethodPost, "/api/v1/transactions/transfer", transferBody(a, b, "500"), token)
		assertErrorCode(t, rec, http.StatusBadRequest, "INSUFFICIENT_FUNDS")
	})

	t.Run("foreign_destination", func(t *testing.T) {
		other := app.registerUser(t)
		foreign := app.createAccount(t, other, "Theirs", "CHECKING", "0")

		rec := app.request(http.MethodPost, "/api/v1/transactions/transfer", transferBody(a, foreign, "10"), token)
		assertErrorCode(t, rec, http.StatusNotFound, "ACCOUNT_NOT_FOUND")
		assertBalance(t, app, other, foreign, "0")
	})

	assertBalance(t, app, token, a, "200")
	assertBalance(t, app, token, b, "50")
	assert.Empty(t, app.Publisher.Types())
}
