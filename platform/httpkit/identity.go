package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by handlers.
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type principal struct {
	userID uuid.UUID
	roles  []string
}

func (p principal) UserID() uuid.UUID        { return p.userID }
func (p principal) Roles() []string          { return p.roles }
func (p principal) HasRole(role string) bool { return slices.Contains(p.roles, role) }
func (p principal) IsAuthenticated() bool    { return p.userID != uuid.Nil }

// SetIdentity stores the caller on the gin context.
func SetIdentity(c *gin.Context, userID uuid.UUID, roles []string) {
	c.Set(ContextUserIDKey, userID)
	c.Set(ContextRolesKey, roles)
}

// GetIdentity never returns nil; callers without a valid user ID get an
// unauthenticated identity.
func GetIdentity(c *gin.Context) Identity {
	uid, _ := c.Get(ContextUserIDKey)
	userID, ok := uid.(uuid.UUID)
	if !ok {
		return principal{}
	}

	raw, _ := c.Get(ContextRolesKey)
	roles, _ := raw.([]string)
	return principal{userID: userID, roles: roles}
}

// MustGetIdentity aborts with 401 and returns nil when the caller is anonymous.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}
