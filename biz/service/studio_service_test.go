package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/biz/service"
)

func TestOnboardTenant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.OnboardTenant(ctx, "acme", "Acme Corp"); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	t.Run("DuplicateRejected", func(t *testing.T) {
		err := svc.OnboardTenant(ctx, "acme", "Acme Again")
		if !errors.Is(err, service.ErrTenantExists) {
			t.Fatalf("expected ErrTenantExists, got %v", err)
		}
	})

	t.Run("EmptyTenantRejected", func(t *testing.T) {
		if err := svc.OnboardTenant(ctx, "", "Nameless"); !errors.Is(err, service.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("DefaultEnvironmentsProvisioned", func(t *testing.T) {
		for _, env := range []string{"dev", "test", "preview", "prod"} {
			if _, err := svc.ListObjectCodes(ctx, adminCtx(env)); err != nil {
				t.Fatalf("environment %s missing after onboarding: %v", env, err)
			}
		}
	})
}

func TestSaveDraftVersionsAreMonotonic(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")

	for want := 1; want <= 3; want++ {
		result := saveDraft(t, svc, tc, "SalesOrder")
		if result.Version != want {
			t.Fatalf("draft %d assigned version %d", want, result.Version)
		}
	}

	infos, err := svc.ListVersions(context.Background(), tc, "SalesOrder")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(infos))
	}
}

func TestSaveDraftNeverPublishes(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	doc := orderDocument()
	doc["isPublished"] = true // client lies; the server overrides
	doc["version"] = 42
	if _, err := svc.SaveDraft(ctx, tc, "SalesOrder", doc); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	latest, err := svc.GetLatest(ctx, tc, "SalesOrder")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Version != 1 || latest.IsPublished || latest.HasPublished {
		t.Fatalf("draft leaked published state: %+v", latest)
	}
	if _, err := svc.GetPublished(ctx, tc, "SalesOrder"); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected no published version, got %v", err)
	}
}

func TestPublishKeepsSingleLiveVersion(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	saveDraft(t, svc, tc, "SalesOrder")
	saveDraft(t, svc, tc, "SalesOrder")
	saveDraft(t, svc, tc, "SalesOrder")

	if _, err := svc.Publish(ctx, tc, "SalesOrder", 2, nil); err != nil {
		t.Fatalf("publish v2: %v", err)
	}
	if _, err := svc.Publish(ctx, tc, "SalesOrder", 3, nil); err != nil {
		t.Fatalf("publish v3: %v", err)
	}

	infos, err := svc.ListVersions(ctx, tc, "SalesOrder")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	published := 0
	for _, info := range infos {
		if info.IsPublished {
			published++
			if info.Version != 3 {
				t.Fatalf("wrong version is live: %+v", info)
			}
		}
	}
	if published != 1 {
		t.Fatalf("%d versions live at once, want exactly 1", published)
	}
}

func TestPublishRoleGate(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	saveDraft(t, svc, adminCtx("dev"), "SalesOrder")
	ctx := context.Background()

	if _, err := svc.Publish(ctx, viewerCtx("dev"), "SalesOrder", 1, nil); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for viewer, got %v", err)
	}

	// only publish is role-gated; unpublish and delete are open
	if err := svc.Unpublish(ctx, viewerCtx("dev"), "SalesOrder"); err != nil {
		t.Fatalf("viewer unpublish should succeed, got %v", err)
	}
	if err := svc.DeleteObject(ctx, viewerCtx("dev"), "SalesOrder"); err != nil {
		t.Fatalf("viewer delete should succeed, got %v", err)
	}
}

func TestPublishPromotionOrder(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()
	saveDraft(t, svc, tc, "SalesOrder")

	t.Run("SkippingStagesRejected", func(t *testing.T) {
		_, err := svc.Publish(ctx, tc, "SalesOrder", 1, []string{"prod"})
		if !errors.Is(err, service.ErrValidation) {
			t.Fatalf("dev->prod must be rejected, got %v", err)
		}
	})

	t.Run("UnknownTargetRejected", func(t *testing.T) {
		_, err := svc.Publish(ctx, tc, "SalesOrder", 1, []string{"staging"})
		if !errors.Is(err, service.ErrValidation) {
			t.Fatalf("unknown environment must be rejected, got %v", err)
		}
	})

	t.Run("NextStageAccepted", func(t *testing.T) {
		result, err := svc.Publish(ctx, tc, "SalesOrder", 1, []string{"test"})
		if err != nil {
			t.Fatalf("publish dev->test: %v", err)
		}
		if len(result.Environments) != 1 || result.Environments[0] != "test" {
			t.Fatalf("promotion should write the target only, got %v", result.Environments)
		}

		promoted, err := svc.GetPublished(ctx, adminCtx("test"), "SalesOrder")
		if err != nil {
			t.Fatalf("published in test: %v", err)
		}
		if promoted.Version != 1 {
			t.Fatalf("promoted version = %d, want 1", promoted.Version)
		}

		// the source environment's copy stays a draft
		source, err := svc.GetLatest(ctx, tc, "SalesOrder")
		if err != nil {
			t.Fatalf("latest in dev: %v", err)
		}
		if source.IsPublished || source.HasPublished {
			t.Fatalf("promotion leaked published state into the source: %+v", source)
		}
		if _, err := svc.GetPublished(ctx, tc, "SalesOrder"); !errors.Is(err, schema.ErrNotFound) {
			t.Fatalf("nothing should be live in dev, got %v", err)
		}
	})
}

func TestPublishVersionZeroMeansLatest(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	saveDraft(t, svc, tc, "SalesOrder")
	saveDraft(t, svc, tc, "SalesOrder")

	result, err := svc.Publish(ctx, tc, "SalesOrder", 0, nil)
	if err != nil {
		t.Fatalf("publish latest: %v", err)
	}
	if result.Version != 2 {
		t.Fatalf("published version = %d, want 2", result.Version)
	}
}

func TestPromotionWritesTargetOnly(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	saveDraft(t, svc, tc, "Invoice")
	saveDraft(t, svc, tc, "Invoice")

	if _, err := svc.Publish(ctx, tc, "Invoice", 2, []string{"test"}); err != nil {
		t.Fatalf("publish v2 dev->test: %v", err)
	}

	promoted, err := svc.GetPublished(ctx, adminCtx("test"), "Invoice")
	if err != nil {
		t.Fatalf("published in test: %v", err)
	}
	if promoted.Version != 2 || !promoted.IsPublished {
		t.Fatalf("test env = %+v, want live v2", promoted)
	}

	source, err := svc.GetLatest(ctx, tc, "Invoice")
	if err != nil {
		t.Fatalf("latest in dev: %v", err)
	}
	if source.Version != 2 || source.IsPublished || source.HasPublished {
		t.Fatalf("dev latest = %+v, want v2 still draft", source)
	}
}

func TestPublishMissingVersion(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	saveDraft(t, svc, tc, "SalesOrder")

	if _, err := svc.Publish(context.Background(), tc, "SalesOrder", 9, nil); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing version, got %v", err)
	}
}

func TestUnpublish(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	saveDraft(t, svc, tc, "SalesOrder")
	if _, err := svc.Publish(ctx, tc, "SalesOrder", 1, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := svc.Unpublish(ctx, tc, "SalesOrder"); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := svc.GetPublished(ctx, tc, "SalesOrder"); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected no published version after unpublish, got %v", err)
	}
	latest, err := svc.GetLatest(ctx, tc, "SalesOrder")
	if err != nil {
		t.Fatalf("latest survives unpublish: %v", err)
	}
	if latest.HasPublished {
		t.Fatalf("HasPublished should be false after unpublish")
	}
}

func TestUnpublishBlockedInProd(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	ctx := context.Background()

	err := svc.Unpublish(ctx, adminCtx("prod"), "SalesOrder")
	if !errors.Is(err, service.ErrProdUnpublish) {
		t.Fatalf("expected ErrProdUnpublish, got %v", err)
	}

	// the guard fires before any lookup: even a missing object reports
	// the prod block, not a not-found
	err = svc.Unpublish(ctx, adminCtx("prod"), "NoSuchObject")
	if !errors.Is(err, service.ErrProdUnpublish) {
		t.Fatalf("prod guard must precede resolution, got %v", err)
	}
}

func TestDeleteObjectIdempotent(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	saveDraft(t, svc, tc, "SalesOrder")

	if err := svc.DeleteObject(ctx, tc, "SalesOrder"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetLatest(ctx, tc, "SalesOrder"); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("object should be gone, got %v", err)
	}

	// second delete of the same (now missing) object is a no-op
	if err := svc.DeleteObject(ctx, tc, "SalesOrder"); err != nil {
		t.Fatalf("repeat delete should succeed, got %v", err)
	}
}

func TestDraftPublishResolveEndToEnd(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	tc := adminCtx("dev")
	ctx := context.Background()

	draft := saveDraft(t, svc, tc, "SalesOrder")
	if _, err := svc.Publish(ctx, tc, "SalesOrder", draft.Version, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	resolved, err := svc.GetPublished(ctx, tc, "salesorder") // folded code
	if err != nil {
		t.Fatalf("published: %v", err)
	}
	if resolved.Version != draft.Version || !resolved.IsPublished {
		t.Fatalf("resolution mismatch: %+v", resolved)
	}
	fields, ok := resolved.Document["fields"].(map[string]any)
	if !ok || fields["customer"] == nil {
		t.Fatalf("document content lost through the workflow: %v", resolved.Document)
	}
	if resolved.Document.Version() != draft.Version {
		t.Fatalf("reserved version field not stamped: %v", resolved.Document)
	}
}

func TestSaveDraftUnknownTenant(t *testing.T) {
	svc := newTestService(t)
	tc := adminCtx("dev") // acme never onboarded

	if _, err := svc.SaveDraft(context.Background(), tc, "SalesOrder", orderDocument()); !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown tenant, got %v", err)
	}
}

func TestSaveDraftValidation(t *testing.T) {
	svc := newTestService(t)
	onboardAcme(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveDraft(ctx, adminCtx("dev"), "", orderDocument()); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty object code, got %v", err)
	}
	if _, err := svc.SaveDraft(ctx, adminCtx("staging"), "SalesOrder", orderDocument()); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown environment, got %v", err)
	}
}
