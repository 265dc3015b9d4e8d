package handler

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/biz/service"
)

// StudioHandler serves the authoring workflow: drafts, publishing and
// tenant onboarding.
type StudioHandler struct {
	svc *service.Service
}

func NewStudioHandler(svc *service.Service) *StudioHandler {
	return &StudioHandler{svc: svc}
}

// SaveDraft stores the request body as a new draft version of the
// object. The assigned version number comes back in the response.
func (h *StudioHandler) SaveDraft(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	var payload schema.VersionDocument
	if err := json.Unmarshal(c.Request.Body(), &payload); err != nil {
		respondError(c, tc.TenantID, "studio", "draft", service.ErrValidation)
		return
	}

	result, err := h.svc.SaveDraft(ctx, tc, objectCode, payload)
	if err != nil {
		respondError(c, tc.TenantID, "studio", "draft", err)
		return
	}
	respondOK(c, tc.TenantID, "studio", "draft", result)
}

type publishRequest struct {
	Version int      `json:"version"`
	Targets []string `json:"targets,omitempty"`
}

// Publish flips a version live in the caller's environment, promoting
// it to any requested downstream environments.
func (h *StudioHandler) Publish(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	var req publishRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		respondError(c, tc.TenantID, "studio", "publish", service.ErrValidation)
		return
	}

	result, err := h.svc.Publish(ctx, tc, objectCode, req.Version, req.Targets)
	if err != nil {
		respondError(c, tc.TenantID, "studio", "publish", err)
		return
	}
	respondOK(c, tc.TenantID, "studio", "publish", result)
}

// Unpublish takes every version of an object offline in the caller's
// environment.
func (h *StudioHandler) Unpublish(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	if err := h.svc.Unpublish(ctx, tc, objectCode); err != nil {
		respondError(c, tc.TenantID, "studio", "unpublish", err)
		return
	}
	respondOK(c, tc.TenantID, "studio", "unpublish", map[string]any{"objectCode": objectCode})
}

// DeleteObject removes an object's screen from the caller's
// environment.
func (h *StudioHandler) DeleteObject(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	if err := h.svc.DeleteObject(ctx, tc, objectCode); err != nil {
		respondError(c, tc.TenantID, "studio", "delete", err)
		return
	}
	respondOK(c, tc.TenantID, "studio", "delete", map[string]any{"objectCode": objectCode})
}

type publishScreenRequest struct {
	TenantID   string `json:"tenantId"`
	ObjectCode string `json:"objectCode"`
	Version    int    `json:"version,omitempty"`
	FromEnv    string `json:"fromEnv"`
	ToEnv      string `json:"toEnv"`
}

// PublishScreen promotes an object's version from one environment to
// the next. Version 0 promotes the newest draft.
func (h *StudioHandler) PublishScreen(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)

	var req publishScreenRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		respondError(c, tc.TenantID, "studio", "promote", service.ErrValidation)
		return
	}
	if req.TenantID != "" {
		tc.TenantID = req.TenantID
	}
	if req.FromEnv != "" {
		tc.Environment = req.FromEnv
	}
	var targets []string
	if req.ToEnv != "" {
		targets = []string{req.ToEnv}
	}

	result, err := h.svc.Publish(ctx, tc, req.ObjectCode, req.Version, targets)
	if err != nil {
		respondError(c, tc.TenantID, "studio", "promote", err)
		return
	}
	respondOK(c, tc.TenantID, "studio", "promote", result)
}

type onboardRequest struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
}

// OnboardTenant provisions a new tenant's template document.
func (h *StudioHandler) OnboardTenant(ctx context.Context, c *app.RequestContext) {
	var req onboardRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		respondError(c, "", "tenant", "onboard", service.ErrValidation)
		return
	}

	if err := h.svc.OnboardTenant(ctx, req.TenantID, req.TenantName); err != nil {
		respondError(c, req.TenantID, "tenant", "onboard", err)
		return
	}
	respondOK(c, req.TenantID, "tenant", "onboard", map[string]any{"tenantId": req.TenantID})
}
