package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runProtect(t *testing.T, header, cookie string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	if cookie != "" {
		c.Request.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	}
	Protect(testSecret)(c)
	return w, c
}

func TestProtectValidBearerToken(t *testing.T) {
	id := primitive.NewObjectID()
	token := signTestToken(t, testSecret, jwt.MapClaims{
		"sub":  id.Hex(),
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	w, c := runProtect(t, "Bearer "+token, "")

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, c.MustGet("userId"))
	assert.Equal(t, "admin", c.MustGet("role"))
}

func TestProtectCookieFallback(t *testing.T) {
	id := primitive.NewObjectID()
	token := signTestToken(t, testSecret, jwt.MapClaims{
		"sub":  id.Hex(),
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, c := runProtect(t, "", token)

	assert.False(t, c.IsAborted())
	assert.Equal(t, id, c.MustGet("userId"))
}

func TestProtectRejectsMissingToken(t *testing.T) {
	w, c := runProtect(t, "", "")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsWrongSecret(t *testing.T) {
	token := signTestToken(t, "other-secret", jwt.MapClaims{
		"sub": primitive.NewObjectID().Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	w, _ := runProtect(t, "Bearer "+token, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsExpiredToken(t *testing.T) {
	token := signTestToken(t, testSecret, jwt.MapClaims{
		"sub": primitive.NewObjectID().Hex(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	w, _ := runProtect(t, "Bearer "+token, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorize(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("role", "user")

	Authorize("admin", "super-admin")(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("role", "super-admin")

	Authorize("admin", "super-admin")(c)

	assert.False(t, c.IsAborted())
}
