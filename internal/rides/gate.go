package rides

import (
	"context"
	"strings"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/models"
)

// UserLookup resolves users by their unique email. Implementations return an
// apperr NotFound error when no user matches.
type UserLookup interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

// Principal is the resolved caller of a request. It is passed by value and
// never re-derived mid-request.
type Principal struct {
	ID    uint
	Email string
	Role  models.Role
}

// Gate authenticates an identity claim against the user store and enforces
// the role required for ride operations.
type Gate struct {
	users UserLookup
}

// NewGate returns a gate that admits admins only.
func NewGate(users UserLookup) *Gate {
	return &Gate{users: users}
}

// Resolve turns the email claim taken from a trusted header into a Principal.
func (g *Gate) Resolve(ctx context.Context, claim string) (Principal, error) {
	email := strings.TrimSpace(claim)
	if email == "" {
		return Principal{}, apperr.Unauthenticated("no identity header provided")
	}

	user, err := g.users.UserByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return Principal{}, apperr.Unauthenticated("no such user")
		}
		return Principal{}, err
	}

	if !user.Role.IsAdmin() {
		return Principal{}, apperr.Forbidden("user is not an admin")
	}

	return Principal{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
