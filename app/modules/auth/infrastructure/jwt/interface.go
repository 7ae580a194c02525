package authjwt

import (
	"time"

	authdomain "github.com/Black-And-White-Club/caddie/app/modules/auth/domain"
	"github.com/google/uuid"
)

// Provider defines the interface for JWT token operations.
type Provider interface {
	// GenerateToken creates a signed token whose subject is userID.
	GenerateToken(userID uuid.UUID, ttl time.Duration) (string, error)

	// ValidateToken validates a JWT token and returns the claims if valid.
	ValidateToken(tokenString string) (*authdomain.Claims, error)
}
