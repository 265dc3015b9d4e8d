package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/smallbiznis/valora/pkg/common"
)

// Recovery returns a middleware that turns panics into an UNEXPECTED
// envelope instead of a dropped connection.
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				hlog.CtxErrorf(ctx, "panic recovered: %v\n%s", err, string(stack))

				tenantID := ""
				if tc, ok := common.GetTenant(ctx); ok {
					tenantID = tc.TenantID
				}
				c.JSON(consts.StatusInternalServerError,
					common.Fail(tenantID, "server", "recover", common.CodeUnexpected, fmt.Sprintf("%v", err)))
				c.Abort()
			}
		}()

		c.Next(ctx)
	}
}
