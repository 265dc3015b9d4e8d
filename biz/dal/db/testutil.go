package db

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/valora/biz/dal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Reduce log noise in tests
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Auto migrate all tables
	if err := db.AutoMigrate(
		&model.TenantTemplate{},
		&model.ObjectDefinition{},
		&model.ObjectField{},
		&model.ObjectRecord{},
		&model.ObjectRecordAttribute{},
		&model.Attachment{},
	); err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}

	return db
}

// CleanupTestDB closes the database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close DB: %v", err)
	}
}

// CreateTestDefinition creates a definition with a text and a number field
func CreateTestDefinition(t *testing.T, db *gorm.DB, tenantID, module string) *model.ObjectDefinition {
	t.Helper()
	dao := NewDefinitionDAO()
	def := &model.ObjectDefinition{
		TenantID:    tenantID,
		Module:      module,
		DisplayName: "Test " + module,
		IsActive:    true,
		Fields: []model.ObjectField{
			{FieldName: "Name", DataType: model.DataTypeText, Required: true, SortOrder: 1},
			{FieldName: "Amount", DataType: model.DataTypeNumber, SortOrder: 2},
		},
	}
	if err := dao.Create(context.Background(), db, def); err != nil {
		t.Fatalf("Failed to create test definition: %v", err)
	}
	return def
}
