// Package tenant scopes every request to one tenant. The reporting
// engine itself never filters by tenant; callers resolve the tenant
// here and pass pre-scoped data down.
package tenant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates an unknown or inactive tenant.
var ErrNotFound = errors.New("tenant: not found")

// Tenant is one onboarded organisation.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
