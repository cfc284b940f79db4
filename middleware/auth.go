package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"table-reservation-api/logger"
	"table-reservation-api/models"
	"table-reservation-api/repository"
)

const userKey = "currentUser"

// UserFinder resolves the account behind a session.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Authenticator struct {
	tokens *TokenManager
	users  UserFinder
}

func NewAuthenticator(tokens *TokenManager, users UserFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// AuthRequired validates the JWT and loads the caller, so role and approval
// changes apply to tokens issued before them.
func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := a.authenticate(c)
		if user == nil {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		a.attach(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if user, _, _ := a.authenticate(c); user != nil {
				a.attach(c, user)
			}
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (*models.User, int, string) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, http.StatusUnauthorized, "Authorization header required (Bearer <token>)"
	}
	claims, err := a.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}
	user, err := a.users.FindUserByEmail(c.Request.Context(), claims.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, http.StatusUnauthorized, "Account no longer exists"
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("session lookup failed")
		return nil, http.StatusInternalServerError, "Failed to load account"
	}
	return user, 0, ""
}

func (a *Authenticator) attach(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	ctx := c.Request.Context()
	l := logger.FromContext(ctx).With().Uint("user_id", user.ID).Logger()
	c.Request = c.Request.WithContext(logger.WithLogger(ctx, l))
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required role(s): " + rolesString(roles),
		})
	}
}

// ApprovalRequired blocks accounts an admin has not approved yet. Admins
// always pass.
func ApprovalRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !user.IsApproved && !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Your account is awaiting admin approval"})
			return
		}
		c.Next()
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}
