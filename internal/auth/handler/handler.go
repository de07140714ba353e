package handler

import (
	"net/http"
	"time"

	"leadscout_backend/internal/auth/service"
	"leadscout_backend/internal/auth/transport"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	refreshCookieName = "leadscout_refresh"
	refreshCookiePath = "/api/v1/auth"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-up", h.SignUp)
	rg.POST("/sign-in", h.SignIn)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/sign-out", h.SignOut)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req transport.SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.svc.SignUp(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, profile)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tokens, err := h.svc.SignIn(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	httpkit.OK(c, tokens)
}

func (h *Handler) Refresh(c *gin.Context) {
	tokens, err := h.svc.Refresh(c.Request.Context(), presentedRefreshToken(c))
	if err != nil {
		h.clearRefreshCookie(c)
		httpkit.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	httpkit.OK(c, tokens)
}

func (h *Handler) SignOut(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.SignOut(c.Request.Context(), presentedRefreshToken(c))) {
		return
	}
	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.GetMe(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, users)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// presentedRefreshToken prefers the JSON body and falls back to the cookie.
func presentedRefreshToken(c *gin.Context) string {
	var req transport.RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if value, err := c.Cookie(refreshCookieName); err == nil {
		return value
	}
	return ""
}

func (h *Handler) setRefreshCookie(c *gin.Context, value string) {
	maxAge := int(h.svc.RefreshTTL() / time.Second)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, value, maxAge, refreshCookiePath, "", c.Request.TLS != nil, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", c.Request.TLS != nil, true)
}
