package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	logrus "github.com/sirupsen/logrus"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/logger"
)

const identityKey = "identity_claim"

// GenerateToken signs a token whose email claim identifies the caller.
func GenerateToken(email string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken verifies tokenStr and returns its email claim.
func ValidateToken(tokenStr string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", apperr.Unauthenticated("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.Unauthenticated("invalid token claims")
	}
	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return "", apperr.Unauthenticated("token carries no email claim")
	}
	return email, nil
}

// Identity extracts the caller's email claim. A bearer token is honoured when
// a secret is configured; otherwise the claim is read verbatim from header,
// which a trusted proxy is expected to set. Resolving the claim to a user is
// left to the handlers.
func Identity(header string, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) > 0 {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				email, err := ValidateToken(strings.TrimPrefix(auth, "Bearer "), secret)
				if err != nil {
					Abort(c, err)
					return
				}
				c.Set(identityKey, email)
				c.Next()
				return
			}
		}

		c.Set(identityKey, c.GetHeader(header))
		c.Next()
	}
}

// IdentityClaim returns the claim stored by Identity.
func IdentityClaim(c *gin.Context) string {
	return c.GetString(identityKey)
}

// Abort writes the error body for err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
	} else {
		logger.FromContext(c.Request.Context()).WithError(err).WithFields(logrus.Fields{
			"kind": kind,
			"path": c.FullPath(),
		}).Debug("request rejected")
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{
		"error": gin.H{
			"kind":    kind,
			"message": apperr.Message(err),
		},
	})
}
