// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity represents the authenticated user's identity as resolved by the
// auth middleware. Handlers convert it into the explicit caller value passed
// to domain services, so services never see the web framework.
type Identity interface {
	// ActorID returns the authenticated user's numeric id.
	ActorID() int64
	// Role returns the user's role name.
	Role() string
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	actorID       int64
	role          string
	authenticated bool
}

func (i *identity) ActorID() int64 {
	return i.actorID
}

func (i *identity) Role() string {
	return i.role
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	actorID, actorOK := c.Get(ContextActorIDKey)
	role, roleOK := c.Get(ContextRoleKey)

	if !actorOK || !roleOK {
		return &identity{authenticated: false}
	}

	id, ok := actorID.(int64)
	if !ok {
		return &identity{authenticated: false}
	}

	roleName, ok := role.(string)
	if !ok {
		return &identity{authenticated: false}
	}

	return &identity{
		actorID:       id,
		role:          roleName,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
