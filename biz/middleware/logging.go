package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/smallbiznis/valora/pkg/common"
)

// Logging returns a middleware that logs one line per request,
// including the resolved tenant when present.
func Logging() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()

		c.Next(ctx)

		latency := time.Since(start)
		method := string(c.Request.Method())
		path := string(c.Request.URI().Path())
		statusCode := c.Response.StatusCode()
		clientIP := c.ClientIP()

		tenant := "-"
		if tc, ok := common.GetTenant(ctx); ok {
			tenant = tc.TenantID
		}

		hlog.CtxInfof(ctx, "[%s] %s %s %s %d %v",
			clientIP,
			tenant,
			method,
			path,
			statusCode,
			latency,
		)
	}
}
