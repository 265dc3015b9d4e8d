package db

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/valora/biz/dal/model"
	"gorm.io/gorm"
)

func TestDefinitionDAO_CreateAndGet(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewDefinitionDAO()
	ctx := context.Background()

	def := CreateTestDefinition(t, db, "acme", "Customer")
	if def.ID == 0 {
		t.Fatal("expected definition ID to be assigned")
	}

	t.Run("FieldsPreloadedInOrder", func(t *testing.T) {
		got, err := dao.GetByModule(ctx, db, "acme", "Customer")
		if err != nil {
			t.Fatalf("GetByModule failed: %v", err)
		}
		if len(got.Fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(got.Fields))
		}
		if got.Fields[0].FieldName != "Name" || got.Fields[1].FieldName != "Amount" {
			t.Fatalf("fields out of declaration order: %+v", got.Fields)
		}
	})

	t.Run("DuplicateModuleRejected", func(t *testing.T) {
		dup := &model.ObjectDefinition{TenantID: "acme", Module: "Customer", IsActive: true}
		if err := dao.Create(ctx, db, dup); err == nil {
			t.Fatal("expected unique index violation")
		}
	})

	t.Run("OtherTenantIsolated", func(t *testing.T) {
		_, err := dao.GetByModule(ctx, db, "other", "Customer")
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("expected ErrRecordNotFound across tenants, got %v", err)
		}
	})

	t.Run("InactiveHidden", func(t *testing.T) {
		inactive := &model.ObjectDefinition{TenantID: "acme", Module: "Archived", IsActive: false}
		if err := dao.Create(ctx, db, inactive); err != nil {
			t.Fatalf("create inactive: %v", err)
		}
		if _, err := dao.GetByModule(ctx, db, "acme", "Archived"); !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("inactive definition should be hidden, got %v", err)
		}
	})
}

func TestDefinitionDAO_ListByTenant(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewDefinitionDAO()
	ctx := context.Background()

	CreateTestDefinition(t, db, "acme", "Invoice")
	CreateTestDefinition(t, db, "acme", "Customer")
	CreateTestDefinition(t, db, "beta", "Customer")

	defs, err := dao.ListByTenant(ctx, db, "acme")
	if err != nil {
		t.Fatalf("ListByTenant failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Module != "Customer" || defs[1].Module != "Invoice" {
		t.Fatalf("definitions not sorted by module: %+v", defs)
	}
}

func TestDefinitionDAO_Delete(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	defDAO := NewDefinitionDAO()
	recDAO := NewRecordDAO()
	ctx := context.Background()

	def := CreateTestDefinition(t, db, "acme", "Customer")

	name := "Alice"
	record := &model.ObjectRecord{
		DefinitionID: def.ID,
		Attributes: []model.ObjectRecordAttribute{
			{FieldID: def.Fields[0].ID, ValueText: &name},
		},
	}
	if err := recDAO.Create(ctx, db, record); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	if err := defDAO.Delete(ctx, db, "acme", "Customer"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	t.Run("ChildrenRemoved", func(t *testing.T) {
		var fields, records, attrs int64
		db.Model(&model.ObjectField{}).Where("definition_id = ?", def.ID).Count(&fields)
		db.Model(&model.ObjectRecord{}).Where("definition_id = ?", def.ID).Count(&records)
		db.Model(&model.ObjectRecordAttribute{}).Where("record_id = ?", record.ID).Count(&attrs)
		if fields != 0 || records != 0 || attrs != 0 {
			t.Fatalf("orphans left behind: fields=%d records=%d attrs=%d", fields, records, attrs)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		if err := defDAO.Delete(ctx, db, "acme", "Customer"); err != nil {
			t.Fatalf("second delete should be a no-op, got %v", err)
		}
	})
}
