package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/smallbiznis/valora/pkg/common"
	"github.com/smallbiznis/valora/pkg/lock"
)

var globalWriteLock *lock.WriteLock

// InitWriteLock sets the distributed write lock used to serialize
// template writes across instances. Call once at startup; leaving it
// unset (Redis disabled) means writes pass through unguarded.
func InitWriteLock(l *lock.WriteLock) {
	globalWriteLock = l
}

// WriteLockMw returns a middleware slice that acquires the global write
// lock, or nil when locking is disabled.
func WriteLockMw() []app.HandlerFunc {
	if globalWriteLock == nil {
		return nil
	}
	return []app.HandlerFunc{writeLockHandler()}
}

func writeLockHandler() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		token, err := globalWriteLock.Acquire(ctx)
		if err != nil {
			hlog.CtxWarnf(ctx, "write lock unavailable: %v", err)
			tenantID := ""
			if tc, ok := common.GetTenant(ctx); ok {
				tenantID = tc.TenantID
			}
			c.JSON(consts.StatusServiceUnavailable,
				common.Fail(tenantID, "server", "lock", common.CodeConflict, "service busy, please retry later"))
			c.Abort()
			return
		}
		defer func() {
			if releaseErr := globalWriteLock.Release(ctx, token); releaseErr != nil {
				hlog.CtxWarnf(ctx, "write lock release failed: %v", releaseErr)
			}
		}()
		c.Next(ctx)
	}
}
