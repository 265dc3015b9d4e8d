package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/smallbiznis/valora/biz/service"
)

// PlatformHandler serves schema resolution for runtime consumers.
type PlatformHandler struct {
	svc *service.Service
}

func NewPlatformHandler(svc *service.Service) *PlatformHandler {
	return &PlatformHandler{svc: svc}
}

// GetLatestSchema returns the newest version of an object, draft or
// published. X-Is-Published tells the client whether any version of
// the object is live.
func (h *PlatformHandler) GetLatestSchema(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	resolved, err := h.svc.GetLatest(ctx, tc, objectCode)
	if err != nil {
		respondError(c, tc.TenantID, "schema", "latest", err)
		return
	}
	c.Response.Header.Set("X-Is-Published", strconv.FormatBool(resolved.HasPublished))
	respondOK(c, tc.TenantID, "schema", "latest", resolved)
}

// GetPublishedSchema returns the live version of an object.
func (h *PlatformHandler) GetPublishedSchema(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	resolved, err := h.svc.GetPublished(ctx, tc, objectCode)
	if err != nil {
		respondError(c, tc.TenantID, "schema", "published", err)
		return
	}
	respondOK(c, tc.TenantID, "schema", "published", resolved)
}

// GetSchemaByVersion returns one exact version of an object.
func (h *PlatformHandler) GetSchemaByVersion(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		respondError(c, tc.TenantID, "schema", "version", service.ErrValidation)
		return
	}
	resolved, err := h.svc.GetByVersion(ctx, tc, objectCode, version)
	if err != nil {
		respondError(c, tc.TenantID, "schema", "version", err)
		return
	}
	respondOK(c, tc.TenantID, "schema", "version", resolved)
}

// ListVersions returns an object's version history, newest first.
func (h *PlatformHandler) ListVersions(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	infos, err := h.svc.ListVersions(ctx, tc, objectCode)
	if err != nil {
		respondError(c, tc.TenantID, "schema", "versions", err)
		return
	}
	respondOK(c, tc.TenantID, "schema", "versions", infos)
}

// ListObjects returns every object code in the caller's environment.
// An :env path parameter overrides the X-Environment header.
func (h *PlatformHandler) ListObjects(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	if env := c.Param("env"); env != "" {
		tc.Environment = env
	}

	codes, err := h.svc.ListObjectCodes(ctx, tc)
	if err != nil {
		respondError(c, tc.TenantID, "schema", "objects", err)
		return
	}
	respondOK(c, tc.TenantID, "schema", "objects", codes)
}
