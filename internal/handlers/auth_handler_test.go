package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with token", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		result := parseJSON(t, rec)
		assert.NotEmpty(t, result["token"])
		user := result["user"].(map[string]interface{})
		assert.Equal(t, "alice@example.com", user["email"])
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"short"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(_, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"username":"alice","email":"alice@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, parseJSON(t, rec)["token"])
	})

	t.Run("returns 401 on bad credentials", func(t *testing.T) {
		svc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(svc))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	var gotID string
	svc := &mockUserService{
		getUserByIDFn: func(id string) (*models.User, error) {
			gotID = id
			return &models.User{Base: models.Base{ID: id}, Username: "alice"}, nil
		},
	}
	r := setupAuthRouter(NewAuthHandler(svc))

	rec := doRequest(r, http.MethodGet, "/profile", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUserID, gotID)
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
}

func TestAuthHandler_Unauthenticated(t *testing.T) {
	r := gin.New()
	r.GET("/profile", NewAuthHandler(&mockUserService{}).GetProfile)

	rec := doRequest(r, http.MethodGet, "/profile", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
}
