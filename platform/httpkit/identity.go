package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by handlers, independent of
// how the token was parsed.
type Identity interface {
	// OwnerID is the agent whose leads the request may touch.
	OwnerID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	ownerID       uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) OwnerID() uuid.UUID       { return i.ownerID }
func (i *identity) Roles() []string          { return i.roles }
func (i *identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }
func (i *identity) IsAuthenticated() bool    { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if owner info is not present.
func GetIdentity(c *gin.Context) Identity {
	value, ok := c.Get(ContextOwnerIDKey)
	if !ok {
		return &identity{}
	}
	ownerID, ok := value.(uuid.UUID)
	if !ok || ownerID == uuid.Nil {
		return &identity{}
	}

	var roles []string
	if raw, ok := c.Get(ContextRolesKey); ok {
		roles, _ = raw.([]string)
	}

	return &identity{ownerID: ownerID, roles: roles, authenticated: true}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the caller is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}
