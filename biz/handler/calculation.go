package handler

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/smallbiznis/valora/biz/service"
)

// CalculationHandler runs formula evaluation for runtime forms.
type CalculationHandler struct {
	svc *service.Service
}

func NewCalculationHandler(svc *service.Service) *CalculationHandler {
	return &CalculationHandler{svc: svc}
}

// Calculate evaluates the object's calculation rules against the
// submitted form data.
func (h *CalculationHandler) Calculate(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)

	var input service.CalculationInput
	if err := json.Unmarshal(c.Request.Body(), &input); err != nil {
		respondError(c, tc.TenantID, "calculation", "run", service.ErrValidation)
		return
	}
	if input.ObjectCode == "" {
		input.ObjectCode = c.Param("objectCode")
	}

	output, err := h.svc.Calculate(ctx, tc, input)
	if err != nil {
		respondError(c, tc.TenantID, "calculation", "run", err)
		return
	}
	respondOK(c, tc.TenantID, "calculation", "run", output)
}

type commitRequest struct {
	FormData map[string]any `json:"formData"`
}

// CommitTemp promotes temp_-staged values in the form data to their
// canonical fields.
func (h *CalculationHandler) CommitTemp(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)

	var req commitRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		respondError(c, tc.TenantID, "calculation", "commit", service.ErrValidation)
		return
	}

	committed, err := h.svc.CommitTempValues(ctx, tc, req.FormData)
	if err != nil {
		respondError(c, tc.TenantID, "calculation", "commit", err)
		return
	}
	respondOK(c, tc.TenantID, "calculation", "commit", map[string]any{"formData": committed})
}
