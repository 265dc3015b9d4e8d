package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/valora/pkg/config"
)

func TestEnsureTenant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// empty seed config is a no-op
	if err := svc.EnsureTenant(ctx, config.SeedConfig{}); err != nil {
		t.Fatalf("empty seed: %v", err)
	}

	seed := config.SeedConfig{TenantID: "acme", TenantName: "Acme Corp"}
	if err := svc.EnsureTenant(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.ListObjectCodes(ctx, adminCtx("dev")); err != nil {
		t.Fatalf("seeded tenant not readable: %v", err)
	}

	// repeat runs reuse the existing template
	if err := svc.EnsureTenant(ctx, seed); err != nil {
		t.Fatalf("repeat seed: %v", err)
	}
}
