package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/valora/biz/dal/db"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/biz/service"
	"github.com/smallbiznis/valora/pkg/common"
	"github.com/smallbiznis/valora/pkg/constants"
	"github.com/smallbiznis/valora/pkg/storage/local"
)

func newTestService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	conn := db.SetupTestDB(t)
	t.Cleanup(func() { db.CleanupTestDB(t, conn) })
	return service.NewService(conn, opts...)
}

func newTestServiceWithStorage(t *testing.T) *service.Service {
	t.Helper()
	store, err := local.New(t.TempDir())
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	conn := db.SetupTestDB(t)
	t.Cleanup(func() { db.CleanupTestDB(t, conn) })
	return service.NewService(conn, service.WithStorage(store))
}

func adminCtx(env string) common.TenantContext {
	return common.TenantContext{
		TenantID:    "acme",
		Environment: env,
		Role:        constants.RoleTenantAdmin,
		UserID:      "user-1",
	}
}

func viewerCtx(env string) common.TenantContext {
	tc := adminCtx(env)
	tc.Role = "Viewer"
	return tc
}

func onboardAcme(t *testing.T, svc *service.Service) {
	t.Helper()
	if err := svc.OnboardTenant(context.Background(), "acme", "Acme Corp"); err != nil {
		t.Fatalf("onboard: %v", err)
	}
}

func orderDocument() schema.VersionDocument {
	return schema.VersionDocument{
		"module": "SalesOrder",
		"fields": map[string]any{
			"customer": map[string]any{"type": "text", "required": true},
			"total":    map[string]any{"type": "number"},
		},
	}
}

func saveDraft(t *testing.T, svc *service.Service, tc common.TenantContext, objectCode string, docs ...schema.VersionDocument) *service.DraftResult {
	t.Helper()
	doc := orderDocument()
	if len(docs) > 0 {
		doc = docs[0]
	}
	result, err := svc.SaveDraft(context.Background(), tc, objectCode, doc)
	if err != nil {
		t.Fatalf("save draft: %v", err)
	}
	return result
}
