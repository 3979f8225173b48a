// Package clients holds the thin HTTP clients for the auth and asset
// collaborator services.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	Logger "github.com/collabsvcs/discussion/utils/log"
)

// AuthClient queries the identity service for profiles and roles.
type AuthClient struct {
	host   string
	client *http.Client
}

func NewAuthClient(host string) *AuthClient {
	return &AuthClient{host: strings.TrimRight(host, "/"), client: &http.Client{}}
}

type profileEnvelope struct {
	Data struct {
		Roles   []string `json:"roles"`
		Profile struct {
			Email string `json:"email"`
		} `json:"profile"`
	} `json:"data"`
}

// GetCurrentUserRoles returns the roles of the request's authenticated user.
// The caller's Authorization header is forwarded as-is so the auth service
// resolves the same identity the gateway did.
func (c *AuthClient) GetCurrentUserRoles(ctx context.Context, authorization string) ([]string, error) {
	Logger.Log.Debug("getting current user roles")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/profile", nil)
	if err != nil {
		return nil, err
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	res, err := c.client.Do(req)
	if err != nil {
		Logger.Log.Errorf("fail to get current user roles: %v", err)
		return nil, &GenericError{Code: AuthErrorCode, Message: "could not call auth service"}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		Logger.Log.Error(ErrUserNotLoggedIn.Error())
		return nil, ErrUserNotLoggedIn
	}
	if res.StatusCode != http.StatusOK {
		Logger.Log.Errorf("auth service answered %d while getting roles", res.StatusCode)
		return nil, &GenericError{Code: AuthErrorCode, Message: "failed to get current user roles"}
	}

	var payload profileEnvelope
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		Logger.Log.Errorf("malformed auth service payload: %v", err)
		return nil, &GenericError{Code: AuthErrorCode, Message: "failed to get current user roles"}
	}
	return payload.Data.Roles, nil
}

// GetUserEmail returns the profile email of the given user id.
func (c *AuthClient) GetUserEmail(ctx context.Context, userId string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/profile/%s", c.host, userId), nil)
	if err != nil {
		return "", err
	}

	res, err := c.client.Do(req)
	if err != nil {
		Logger.Log.Errorf("fail to contact auth service: %v", err)
		return "", &GenericError{Code: AuthErrorCode, Message: "could not call auth service"}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		Logger.Log.Errorf("auth service answered %d while getting the profile of %s", res.StatusCode, userId)
		return "", &GenericError{Code: AuthErrorCode, Message: "could not call auth service"}
	}

	var payload profileEnvelope
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		Logger.Log.Errorf("malformed auth service payload: %v", err)
		return "", &GenericError{Code: AuthErrorCode, Message: "could not call auth service"}
	}
	Logger.Log.Debugf("mail fetched for user %s", userId)
	return payload.Data.Profile.Email, nil
}
