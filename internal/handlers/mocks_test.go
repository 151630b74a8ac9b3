package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

const (
	testUserID    = "0190c0de-0000-7000-8000-000000000001"
	testAccountID = "0190c0de-0000-7000-8000-0000000000a1"
	testOtherID   = "0190c0de-0000-7000-8000-0000000000a2"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// --- mock services ---

type mockUserService struct {
	createUserFn   func(username, email, password string) (*models.User, error)
	getUserByIDFn  func(id string) (*models.User, error)
	attemptLoginFn func(email, password string) (*models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, username, email, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, email, password)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Username: username, Email: email}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) AttemptLogin(_ context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
}

type mockAccountService struct {
	createAccountFn   func(userID string, draft services.AccountDraft) (*models.Account, error)
	depositFn         func(accountID string, amount decimal.Decimal) (*models.Account, error)
	withdrawFn        func(accountID string, amount decimal.Decimal) (*models.Account, error)
	getAccountByIDFn  func(userID, accountID string) (*models.Account, error)
	updateAccountFn   func(userID, accountID string, changes services.AccountChanges) (*models.Account, error)
	deleteAccountFn   func(userID, accountID string) error
	getUserAccountsFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
}

func (m *mockAccountService) CreateAccount(_ context.Context, userID string, draft services.AccountDraft) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, draft)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) Deposit(_ context.Context, accountID string, amount decimal.Decimal) (*models.Account, error) {
	if m.depositFn != nil {
		return m.depositFn(accountID, amount)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) Withdraw(_ context.Context, accountID string, amount decimal.Decimal) (*models.Account, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(accountID, amount)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{Base: models.Base{ID: accountID}, UserID: userID}, nil
}

func (m *mockAccountService) UpdateAccount(_ context.Context, userID, accountID string, changes services.AccountChanges) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(userID, accountID, changes)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeleteAccount(_ context.Context, userID, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(userID, accountID)
	}
	return nil
}

type mockCategoryService struct {
	createCategoryFn    func(userID string, draft services.CategoryDraft) (*models.Category, error)
	getUserCategoriesFn func(userID string, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error)
	getCategoryByIDFn   func(userID, categoryID string) (*models.Category, error)
	updateCategoryFn    func(userID, categoryID string, changes services.CategoryChanges) (*models.Category, error)
	deleteCategoryFn    func(userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(_ context.Context, userID string, draft services.CategoryDraft) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, draft)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(_ context.Context, userID string, categoryType *models.CategoryType, _ pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID, categoryType)
	}
	resp := pagination.NewPageResponse([]models.Category{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) UpdateCategory(_ context.Context, userID, categoryID string, changes services.CategoryChanges) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, changes)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(_ context.Context, userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

type mockTransactionService struct {
	createTransactionFn   func(userID string, draft services.TransactionDraft) (*models.Transaction, error)
	updateTransactionFn   func(transactionID, userID string, changes services.TransactionChanges) (*models.Transaction, error)
	deleteTransactionFn   func(transactionID string) error
	transferFn            func(from, to string, amount decimal.Decimal) (*models.Transaction, error)
	getTransactionByIDFn  func(userID, transactionID string) (*models.Transaction, error)
	getUserTransactionsFn func(userID string, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, userID string, draft services.TransactionDraft) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, draft)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, transactionID, userID string, changes services.TransactionChanges) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(transactionID, userID, changes)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(transactionID)
	}
	return nil
}

func (m *mockTransactionService) Transfer(_ context.Context, from, to string, amount decimal.Decimal) (*models.Transaction, error) {
	if m.transferFn != nil {
		return m.transferFn(from, to, amount)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(_ context.Context, userID string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0)
	return &resp, nil
}

type mockBudgetService struct {
	createBudgetFn   func(userID string, draft services.BudgetDraft) (*models.Budget, error)
	getUserBudgetsFn func(userID string, filter services.BudgetListFilter) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn  func(userID, budgetID string) (*models.Budget, error)
	updateBudgetFn   func(userID, budgetID string, changes services.BudgetChanges) (*models.Budget, error)
	deleteBudgetFn   func(userID, budgetID string) error
	progressFn       func(userID, budgetID string) (*services.BudgetProgress, error)
	resetFn          func(budgetID string) error
}

func (m *mockBudgetService) CreateBudget(_ context.Context, userID string, draft services.BudgetDraft) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, draft)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(_ context.Context, userID string, filter services.BudgetListFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, filter)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(_ context.Context, userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}, UserID: userID}, nil
}

func (m *mockBudgetService) UpdateBudget(_ context.Context, userID, budgetID string, changes services.BudgetChanges) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, changes)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

func (m *mockBudgetService) GetBudgetProgress(_ context.Context, userID, budgetID string) (*services.BudgetProgress, error) {
	if m.progressFn != nil {
		return m.progressFn(userID, budgetID)
	}
	return &services.BudgetProgress{BudgetID: budgetID}, nil
}

func (m *mockBudgetService) UpdateBudgetSpentAmount(context.Context, string, string, decimal.Decimal) error {
	return nil
}

func (m *mockBudgetService) ResetBudgetSpentAmount(_ context.Context, budgetID string) error {
	if m.resetFn != nil {
		return m.resetFn(budgetID)
	}
	return nil
}

func (m *mockBudgetService) RollOverExpiredBudgets(context.Context) (int, error) {
	return 0, nil
}

// verify interface compliance
var (
	_ services.UserServicer        = (*mockUserService)(nil)
	_ services.AccountServicer     = (*mockAccountService)(nil)
	_ services.CategoryServicer    = (*mockCategoryService)(nil)
	_ services.TransactionServicer = (*mockTransactionService)(nil)
	_ services.BudgetServicer      = (*mockBudgetService)(nil)
)

// --- test helpers ---

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
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
