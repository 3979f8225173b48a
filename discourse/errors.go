package discourse

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"strings"

	Logger "github.com/collabsvcs/discussion/utils/log"
)

var (
	// ErrUnavailable is returned when the forum platform answers with a 5xx.
	// Callers must surface it as a generic internal error, never exposing the
	// platform response to the end user.
	ErrUnavailable = errors.New("the forum platform is unavailable")

	// ErrResourceUnavailable is returned when the requested resource cannot
	// be identified by the forum platform (404). Depending on the caller it
	// means "needs creation" or a plain not-found.
	ErrResourceUnavailable = errors.New("the requested forum resource is unavailable")

	// ErrAuthentication is returned when the platform rejects our API key
	// (403). The detail is logged, not surfaced.
	ErrAuthentication = errors.New("failed to authenticate with the forum platform")

	// ErrAuthenticationNeeded is returned when an operation requires an
	// acting user and the request has none.
	ErrAuthenticationNeeded = errors.New("You need to be logged in in order to publish on forum")
)

// RequestError carries the platform's own validation detail (422) or rate
// limit detail (429), joined by "-". It is the only forum failure whose text
// is shown to the end user.
type RequestError struct {
	Detail string
}

func (e *RequestError) Error() string {
	return e.Detail
}

func newRequestError(errs []string) *RequestError {
	return &RequestError{Detail: strings.Join(errs, "-")}
}

type errorsPayload struct {
	Errors []string `json:"errors"`
}

// checkResponse funnels every platform status code into the error taxonomy,
// so error semantics are uniform across all operations. A nil return means
// the caller may decode the payload.
func checkResponse(res *http.Response, operation string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	switch {
	case res.StatusCode >= 500:
		body, _ := ioutil.ReadAll(res.Body)
		Logger.Log.Errorf("something is wrong with the forum platform during %s: %s %d %s", operation, res.Request.URL, res.StatusCode, string(body))
		return ErrUnavailable
	case res.StatusCode == http.StatusNotFound:
		return ErrResourceUnavailable
	case res.StatusCode == http.StatusForbidden:
		Logger.Log.Errorf("authentication issue with the forum platform during %s", operation)
		return ErrAuthentication
	case res.StatusCode == http.StatusUnprocessableEntity, res.StatusCode == http.StatusTooManyRequests:
		var payload errorsPayload
		if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
			Logger.Log.Errorf("fail to decode forum error payload during %s: %v", operation, err)
			return ErrUnavailable
		}
		Logger.Log.Errorf("forum platform rejected parameters during %s: %v", operation, payload.Errors)
		return newRequestError(payload.Errors)
	default:
		body, _ := ioutil.ReadAll(res.Body)
		Logger.Log.Errorf("unexpected forum platform status during %s: %d %s", operation, res.StatusCode, string(body))
		return ErrUnavailable
	}
}
