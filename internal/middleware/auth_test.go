package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/logger"
	"fintrack/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UserIDKey))
	})
	return r
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{Base: models.Base{ID: "0190c0de-0000-7000-8000-000000000001"}, Email: "a@example.com"}

	token, err := GenerateToken(user)
	require.NoError(t, err)

	r := protectedRouter()

	t.Run("valid_token", func(t *testing.T) {
		rec := get(r, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, rec.Body.String())
	})

	t.Run("missing_header", func(t *testing.T) {
		rec := get(r, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("wrong_scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "Token "+token).Code)
	})

	t.Run("tampered_token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token+"x").Code)
	})
}

func TestParseToken(t *testing.T) {
	user := &models.User{Base: models.Base{ID: "user-1"}, Email: "b@example.com"}
	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "b@example.com", claims.Email)

	_, err = ParseToken("not-a-token")
	assert.Error(t, err)
}
