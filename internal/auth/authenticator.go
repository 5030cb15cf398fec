package auth

import (
	"context"

	"github.com/tallyhq/tally/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The abstraction allows swapping auth methods (password, OAuth, passkeys)
// without touching the handlers.
type Authenticator interface {
	// Register creates a new account. The credential format depends on the
	// implementation; for PasswordAuthenticator it is the plain password.
	Register(ctx context.Context, email, displayName, imageURL, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user on success.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}
