package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// UserIDKey is the gin context key holding the authenticated user ID.
const UserIDKey = "user_id"

// AnonymousUser is the identity used when no verifier is configured.
const AnonymousUser = "anonymous"

// TokenVerifier validates a bearer credential and yields a user identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// GoogleVerifier checks Google-signed ID tokens (Firebase ID tokens are
// Google-signed JWTs) against the configured audience.
type GoogleVerifier struct {
	audience  string
	validator *idtoken.Validator
}

// NewGoogleVerifier builds a verifier for the given audience.
func NewGoogleVerifier(ctx context.Context, audience string) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("failed to init token validator: %w", err)
	}
	return &GoogleVerifier{audience: audience, validator: validator}, nil
}

// Verify validates the token and returns its subject.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	payload, err := v.validator.Validate(ctx, token, v.audience)
	if err != nil {
		return "", fmt.Errorf("invalid id token: %w", err)
	}
	if payload.Subject == "" {
		return "", fmt.Errorf("id token has no subject")
	}
	return payload.Subject, nil
}

// RequireAuth extracts and verifies the bearer token on protected routes.
// A nil verifier disables authentication: requests pass through with the
// anonymous identity, mirroring how the process degrades when the identity
// service is not configured.
func RequireAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if verifier == nil {
			c.Set(UserIDKey, AnonymousUser)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warn("token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user from the gin context.
func UserID(c *gin.Context) string {
	if id, ok := c.Get(UserIDKey); ok {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return AnonymousUser
}
