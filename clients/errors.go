package clients

import (
	"errors"
	"fmt"
)

const (
	// Stable error codes surfaced when a collaborator cannot be reached. The
	// raw failure is logged, never shown to the caller.
	AuthErrorCode  = 25001
	AssetErrorCode = 25002
)

// ErrUserNotLoggedIn is returned when the auth service answers 401 for the
// current request.
var ErrUserNotLoggedIn = errors.New("User is not logged in")

// GenericError hides a collaborator failure behind a fixed code. Route
// handlers translate it into the generic internal error response.
type GenericError struct {
	Code    int
	Message string
}

func (e *GenericError) Error() string {
	return fmt.Sprintf("error %d: %s", e.Code, e.Message)
}

// AssetRetrievalError is returned when the asset service cannot serve an
// asset.
type AssetRetrievalError struct {
	Status int
}

func (e *AssetRetrievalError) Error() string {
	return fmt.Sprintf("asset service answered %d", e.Status)
}
