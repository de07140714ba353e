package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"leadscout_backend/internal/audits/export"
	"leadscout_backend/internal/audits/service"
	"leadscout_backend/internal/audits/transport"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid audit id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the audit routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/export", h.Export)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/pitch", h.Pitch)
	rg.POST("/:id/email", h.Email)
	rg.POST("/:id/rescore", h.Rescore)
}

// RegisterScoringRoutes mounts the engine-only routes.
func (h *Handler) RegisterScoringRoutes(rg *gin.RouterGroup) {
	rg.POST("/scoring/evaluate", h.Evaluate)
	rg.GET("/locations/resolve", h.ResolveLocation)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAuditRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusCreated
	if req.Async {
		status = http.StatusAccepted
	}
	httpkit.JSON(c, status, result)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListAuditsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Export(c *gin.Context) {
	var req transport.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(c.Request.Context(), &buf, req.Limit); httpkit.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("audits-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) Pitch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Pitch(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Email(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.EmailAuditRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Email(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Rescore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Rescore(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Evaluate(c *gin.Context) {
	var req transport.EvaluateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.Evaluate(req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ResolveLocation(c *gin.Context) {
	var req transport.ResolveLocationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	httpkit.OK(c, h.svc.ResolveLocation(req.Query))
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
