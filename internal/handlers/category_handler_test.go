package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/categories", handler.CreateCategory)
	auth.GET("/categories", handler.GetUserCategories)
	auth.GET("/categories/:id", handler.GetCategoryByID)
	auth.PUT("/categories/:id", handler.UpdateCategory)
	auth.DELETE("/categories/:id", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(userID string, draft services.CategoryDraft) (*models.Category, error) {
				return &models.Category{UserID: userID, Name: draft.Name, Type: draft.Type}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Groceries","type":"EXPENSE","color":"#00ff00"}`)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		category := parseJSON(t, rec)["category"].(map[string]interface{})
		assert.Equal(t, "Groceries", category["name"])
	})

	t.Run("returns 400 on bad color", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Groceries","type":"EXPENSE","color":"green"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 on transfer type", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}))

		rec := doRequest(r, http.MethodPost, "/categories", `{"name":"Moves","type":"TRANSFER"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoryHandler_GetUserCategories(t *testing.T) {
	var gotType *models.CategoryType
	svc := &mockCategoryService{
		getUserCategoriesFn: func(_ string, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error) {
			gotType = categoryType
			resp := pagination.NewPageResponse([]models.Category{{Name: "Salary"}}, pagination.PageRequest{Page: 1, PageSize: 20}, 1)
			return &resp, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc))

	rec := doRequest(r, http.MethodGet, "/categories?type=INCOME", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotType)
	assert.Equal(t, models.CategoryTypeIncome, *gotType)

	rec = doRequest(r, http.MethodGet, "/categories?type=OTHER", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantParent bool
		wantID     *string
	}{
		{"parent untouched", `{"name":"Food"}`, false, nil},
		{"parent cleared", `{"parent_id":""}`, true, nil},
		{"parent set", `{"parent_id":"` + testOtherID + `"}`, true, strPtr(testOtherID)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got services.CategoryChanges
			svc := &mockCategoryService{
				updateCategoryFn: func(_, _ string, changes services.CategoryChanges) (*models.Category, error) {
					got = changes
					return &models.Category{}, nil
				},
			}
			r := setupCategoryRouter(NewCategoryHandler(svc))

			rec := doRequest(r, http.MethodPut, "/categories/"+testAccountID, tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			if !tt.wantParent {
				assert.Nil(t, got.Parent)
				return
			}
			require.NotNil(t, got.Parent)
			assert.Equal(t, tt.wantID, got.Parent.ID)
		})
	}
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	svc := &mockCategoryService{
		deleteCategoryFn: func(string, string) error {
			return apperrors.ErrCategoryInUse
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc))

	rec := doRequest(r, http.MethodDelete, "/categories/"+testAccountID, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_IN_USE")
}

func strPtr(s string) *string { return &s }
