package middleware

import (
	"net/http"
	"strings"

	"branchdesk/internal/models"
	"branchdesk/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsKey = "claims"

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid or expired token"
	msgForbidden    = "Access denied. Insufficient permissions."
)

// TokenVerifier checks a bearer token. *token.Manager satisfies it.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Authenticate rejects requests without a bearer token (401) or with one that
// fails verification (403). On success the claims are stored for handlers.
func Authenticate(tokens TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, tokens, logger) {
			return
		}
		c.Next()
	}
}

// Authorize authenticates and then requires one of roles. With no roles any
// authenticated caller is allowed.
func Authorize(tokens TokenVerifier, logger *zap.Logger, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, tokens, logger) {
			return
		}

		claims := ClaimsFromContext(c)
		if !claims.HasRole(roles...) {
			logger.Debug("Role not allowed",
				zap.Int64("user_id", claims.ID),
				zap.String("role", string(claims.Role)),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgForbidden})
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, tokens TokenVerifier, logger *zap.Logger) bool {
	tokenString, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgNoToken})
		return false
	}

	claims, err := tokens.Verify(tokenString)
	if err != nil {
		logger.Debug("Rejected bearer token", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgInvalidToken})
		return false
	}

	c.Set(claimsKey, claims)
	return true
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// ClaimsFromContext returns the claims stored by Authenticate, or nil when the
// route is not guarded.
func ClaimsFromContext(c *gin.Context) *token.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*token.Claims)
	return claims
}
