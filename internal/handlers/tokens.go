package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Aditya-Garg10/Listygo/internal/config"
)

func signToken(id, role, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id,
		"role":  role,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(config.AppEnv.AccessTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.AppEnv.JWTSecret))
}

// sendTokenResponse issues the JWT both in the body and as an httpOnly
// cookie, matching what browser and API clients each expect.
func sendTokenResponse(c *gin.Context, status int, id, role, email string, data interface{}) {
	token, err := signToken(id, role, email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not sign token")
		return
	}

	secure := config.AppEnv.IsProd()
	c.SetCookie("token", token, int(config.AppEnv.CookieTTL.Seconds()), "/", "", secure, true)

	c.JSON(status, gin.H{"success": true, "token": token, "data": data})
}

func clearTokenCookie(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", config.AppEnv.IsProd(), true)
}
