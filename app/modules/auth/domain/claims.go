package authdomain

import (
	"time"

	"github.com/google/uuid"
)

// Claims are the validated contents of a bearer token. The token subject is
// the player's user id.
type Claims struct {
	UserID    uuid.UUID
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
