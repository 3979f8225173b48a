// Package middlewares resolves the acting identity injected by the gateway
// and enforces per-route authentication and role requirements.
package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/collabsvcs/discussion/clients"
	"github.com/collabsvcs/discussion/model"
	"github.com/collabsvcs/discussion/utils"
)

// Identity headers set by the gateway after it authenticated the caller.
const (
	HeaderUserId      = "X-User-Id"
	HeaderUsername    = "X-Username"
	HeaderDisplayName = "X-Display-Name"
	HeaderUserEmail   = "X-User-Email"
)

const userContextKey = "discussion/user"

// Identity builds the acting user from the gateway headers and stores it on
// the request context. Requests without an identity pass through: public
// routes tolerate anonymous callers, the others gate on RequireUser.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(HeaderUserId); id != "" {
			c.Set(userContextKey, &model.User{
				Id:          id,
				Username:    c.GetHeader(HeaderUsername),
				DisplayName: c.GetHeader(HeaderDisplayName),
				Email:       c.GetHeader(HeaderUserEmail),
			})
		}
		c.Next()
	}
}

// CurrentUser returns the acting user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userContextKey); ok {
		return v.(*model.User)
	}
	return nil
}

// SetCurrentUser injects an acting user, for tests.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(userContextKey, user)
}

// RequireUser aborts with 401 when the request carries no identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Envelope{
				Data:       gin.H{},
				Error:      "You need to be logged in in order to publish on forum",
				HttpStatus: http.StatusUnauthorized,
			})
			return
		}
		c.Next()
	}
}

// RequireRoles aborts unless the auth service reports at least one of the
// given roles for the caller. Role matching is case-insensitive since the
// role list is free text.
func RequireRoles(auth *clients.AuthClient, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Envelope{
				Data:       gin.H{},
				Error:      "You need to be logged in in order to publish on forum",
				HttpStatus: http.StatusUnauthorized,
			})
			return
		}

		userRoles, err := auth.GetCurrentUserRoles(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			status := http.StatusInternalServerError
			message := model.DefaultInternalErrorMessage
			if errors.Is(err, clients.ErrUserNotLoggedIn) {
				status = http.StatusUnauthorized
				message = err.Error()
			}
			c.AbortWithStatusJSON(status, model.Envelope{Data: gin.H{}, Error: message, HttpStatus: status})
			return
		}

		for _, role := range roles {
			if utils.ContainsStringIgnoreCase(userRoles, role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, model.Envelope{
			Data:       gin.H{},
			Error:      "Insufficient role to perform this operation.",
			HttpStatus: http.StatusForbidden,
		})
	}
}
