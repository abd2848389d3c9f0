package webserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/docsmith/docgen/src/config"
)

type Auth struct {
	jwtSecret []byte
}

func NewAuth(secret []byte) Auth {
	return Auth{jwtSecret: secret}
}

// Token exchanges a configured API key for a short-lived JWT.
func (a Auth) Token(c *gin.Context) {
	var req struct {
		ClientID string `json:"client_id" binding:"required"`
		APIKey   string `json:"api_key"   binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	expected := config.GetSetting("api_key", "API_KEY", "")
	if expected == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(expected)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid credentials"})
		return
	}

	token, err := issueJWT(req.ClientID, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func issueJWT(clientID string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"client_id": clientID,
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	return token.SignedString(secret)
}

func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.Parse(h[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !tok.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("client_id", tok.Claims.(jwt.MapClaims)["client_id"])
		c.Next()
	}
}
