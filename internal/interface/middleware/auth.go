package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxIdentityKey = "identity"
)

// Authenticate validates a "Authorization: Bearer <token>" header, verifies
// the token, and loads the subject from the store. The loaded identity (with
// the password hash blanked) is set in the Gin context on success. A subject
// missing from the store means the account was deleted after the token was
// issued; that is a normal 401, not an error.
func Authenticate(users repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "not authorized, no token")
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			// the concrete rejection reason stays in the logs
			if logger != nil {
				logger.WithError(err).Debug("token rejected")
			}
			response.Abort(c, http.StatusUnauthorized, "not authorized, token failed")
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				response.Abort(c, http.StatusUnauthorized, "not authorized, token failed")
				return
			}
			if logger != nil {
				logger.WithError(err).WithField("user_id", claims.UserID).Error("identity lookup failed")
			}
			response.Abort(c, http.StatusInternalServerError, "internal server error")
			return
		}
		u.PasswordHash = ""

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxIdentityKey, u)
		c.Next()
	}
}

// RequireAdmin allows the request through only when the authenticated
// identity carries the admin flag. It must be registered after Authenticate;
// a missing identity is a route-wiring bug, not a client error.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := Identity(c)
		if u == nil {
			panic("RequireAdmin used without Authenticate")
		}
		if !u.IsAdmin {
			response.Abort(c, http.StatusForbidden, "not authorized as an admin")
			return
		}
		c.Next()
	}
}

// Identity returns the authenticated user set by Authenticate, or nil.
func Identity(c *gin.Context) *entity.User {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
