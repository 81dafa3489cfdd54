package cart

import (
	"strings"

	"github.com/google/uuid"
)

// Owner identifies whose cart is addressed: a signed-in user, or else an
// anonymous browser session.
type Owner struct {
	UserID     *uuid.UUID
	SessionKey string
}

// UserOwner returns an owner bound to an authenticated user.
func UserOwner(id uuid.UUID) Owner {
	return Owner{UserID: &id}
}

// SessionOwner returns an anonymous owner bound to a session key.
func SessionOwner(key string) Owner {
	return Owner{SessionKey: strings.TrimSpace(key)}
}

// Anonymous reports whether the owner has no user account.
func (o Owner) Anonymous() bool {
	return o.UserID == nil || *o.UserID == uuid.Nil
}

// Valid reports whether the owner can address a cart at all.
func (o Owner) Valid() bool {
	return !o.Anonymous() || o.SessionKey != ""
}
