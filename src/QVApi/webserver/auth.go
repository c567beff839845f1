package webserver

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stake-plus/questcomms/src/shared/data"
)

type Auth struct {
	jwtSecret []byte
}

func NewAuth(secret []byte) Auth {
	return Auth{jwtSecret: secret}
}

// Login exchanges the operator key for a short-lived bearer token.
func (a Auth) Login(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	operatorKey := data.GetSetting("api_operator_key")
	if operatorKey == "" || subtle.ConstantTimeCompare([]byte(req.Key), []byte(operatorKey)) != 1 {
		log.Printf("Rejected operator login from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid key"})
		return
	}

	claims := jwt.RegisteredClaims{
		Subject:   "operator",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Middleware validates the bearer token on the read endpoints.
func (a Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "missing bearer token"})
			return
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.jwtSecret, nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid token"})
			return
		}

		c.Next()
	}
}
