package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/collabsvcs/discussion/clients"
	"github.com/collabsvcs/discussion/discourse"
	"github.com/collabsvcs/discussion/model"
	"github.com/collabsvcs/discussion/moderation"
)

func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, model.Envelope{Data: data, HttpStatus: http.StatusOK})
}

func respondError(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, model.Envelope{Data: data, Error: message, HttpStatus: status})
}

// translateError maps the known failure taxonomy to the uniform envelope.
// Platform outages and collaborator failures deliberately collapse into the
// generic internal message so platform internals never leak to clients.
func translateError(c *gin.Context, err error, data interface{}) {
	var requestErr *discourse.RequestError

	switch {
	case errors.Is(err, discourse.ErrAuthenticationNeeded), errors.Is(err, clients.ErrUserNotLoggedIn):
		respondError(c, http.StatusUnauthorized, data, err.Error())
	case errors.As(err, &requestErr):
		respondError(c, http.StatusBadRequest, data, requestErr.Detail)
	case errors.Is(err, moderation.ErrSendModeration):
		respondError(c, http.StatusInternalServerError, data, err.Error())
	default:
		// ErrUnavailable, ErrResourceUnavailable, ErrAuthentication,
		// collaborator and database failures.
		respondError(c, http.StatusInternalServerError, data, model.DefaultInternalErrorMessage)
	}
}
