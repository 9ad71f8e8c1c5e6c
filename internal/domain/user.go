package domain

// User is the current-user record carried by a validated bearer credential.
type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Session pairs the current user with the raw bearer credential that is
// forwarded to the remote cart service.
type Session struct {
	User       User
	Credential string
}
