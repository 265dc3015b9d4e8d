package service

import (
	"context"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/smallbiznis/valora/pkg/config"
)

// EnsureTenant provisions the configured seed tenant at startup so a
// fresh deployment serves requests without a manual onboarding call.
func (s *Service) EnsureTenant(ctx context.Context, seed config.SeedConfig) error {
	if seed.TenantID == "" {
		return nil
	}
	_, _, err := s.logic.loadOrCreateTemplate(ctx, seed.TenantID, seed.TenantName)
	if err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "seed tenant %s ready", seed.TenantID)
	return nil
}
