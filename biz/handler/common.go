package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/smallbiznis/valora/biz/dal/db"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/biz/service"
	"github.com/smallbiznis/valora/pkg/common"
)

// tenantFrom pulls the tenant context resolved by the middleware. The
// zero value only shows up on routes mounted without RequireTenant.
func tenantFrom(ctx context.Context) common.TenantContext {
	tc, _ := common.GetTenant(ctx)
	return tc
}

func respondOK(c *app.RequestContext, tenantID, resource, action string, data any) {
	c.JSON(consts.StatusOK, common.OK(tenantID, resource, action, data))
}

// respondError maps service and schema errors onto HTTP status plus a
// stable envelope error code.
func respondError(c *app.RequestContext, tenantID, resource, action string, err error) {
	status := consts.StatusInternalServerError
	code := common.CodeUnexpected

	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, schema.ErrInvalidVersion):
		status, code = consts.StatusBadRequest, common.CodeValidation
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrProdUnpublish):
		status, code = consts.StatusForbidden, common.CodeForbidden
	case errors.Is(err, service.ErrTenantExists),
		errors.Is(err, service.ErrDefinitionExists),
		errors.Is(err, db.ErrStaleTemplate):
		status, code = consts.StatusConflict, common.CodeConflict
	case errors.Is(err, service.ErrSchemaNotFound):
		status, code = consts.StatusNotFound, common.CodeSchemaNotFound
	case errors.Is(err, service.ErrCalculation):
		status, code = consts.StatusUnprocessableEntity, common.CodeCalculation
	case errors.Is(err, schema.ErrNotFound),
		errors.Is(err, service.ErrRecordNotFound),
		errors.Is(err, service.ErrDefinitionNotFound),
		errors.Is(err, service.ErrAttachmentNotFound):
		status, code = consts.StatusNotFound, common.CodeNotFound
	}

	c.JSON(status, common.Fail(tenantID, resource, action, code, err.Error()))
}
