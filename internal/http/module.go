package http

import (
	"leadscout_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a feature package that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the pre-built route groups. Every group lives
// under /api/v1; Protected requires an access token and Admin additionally
// requires the admin role.
type RouterContext struct {
	V1        *gin.RouterGroup
	Protected *gin.RouterGroup
	Admin     *gin.RouterGroup

	// AuthRateLimiter is applied by the auth module to credential endpoints.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
