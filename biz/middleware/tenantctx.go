package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/smallbiznis/valora/pkg/common"
	"github.com/smallbiznis/valora/pkg/constants"
)

// Tenant returns a middleware that reads the caller identity headers
// and stashes them in the context. It does not enforce anything; use
// RequireTenant on routes that need an identified tenant.
func Tenant() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		tc := tenantFromRequest(c)
		if tc.TenantID != "" {
			ctx = common.ContextWithTenant(ctx, tc)
		}
		c.Next(ctx)
	}
}

// RequireTenant returns a middleware that rejects requests without an
// X-Tenant-Id header.
func RequireTenant() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		tc := tenantFromRequest(c)
		if tc.TenantID == "" {
			c.JSON(consts.StatusBadRequest,
				common.Fail("", "tenant", "resolve", common.CodeValidation, "missing X-Tenant-Id header"))
			c.Abort()
			return
		}
		ctx = common.ContextWithTenant(ctx, tc)
		c.Next(ctx)
	}
}

func tenantFromRequest(c *app.RequestContext) common.TenantContext {
	tc := common.TenantContext{
		TenantID:    strings.TrimSpace(string(c.GetHeader("X-Tenant-Id"))),
		TenantName:  strings.TrimSpace(string(c.GetHeader("X-Tenant-Name"))),
		Environment: strings.TrimSpace(string(c.GetHeader("X-Environment"))),
		Role:        strings.TrimSpace(string(c.GetHeader("X-Role"))),
		UserID:      strings.TrimSpace(string(c.GetHeader("X-User-Id"))),
	}
	if tc.Environment == "" {
		tc.Environment = constants.EnvironmentDev
	}
	return tc
}
