package model

// User is the acting identity resolved from the inbound request. It is
// injected by the gateway and never stored by this service.
type User struct {
	Id          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
