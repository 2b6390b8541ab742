package auth

import "context"

// LoginCommand carries the credentials submitted to the login endpoint.
// Identifier matches an org admin email or a member username/email.
type LoginCommand struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterCommand carries the data needed to register a new member account.
type RegisterCommand struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        Role   `json:"role"`
}

// System defines the public contract for authentication operations.
type System interface {
	Handler() *Handler

	Login(ctx context.Context, cmd LoginCommand) (*Session, error)
	Register(ctx context.Context, cmd RegisterCommand) error
	Verify(token string) (Principal, error)
}
