package db

import (
	"context"
	"errors"

	"github.com/smallbiznis/valora/biz/dal/model"

	"gorm.io/gorm"
)

// ErrStaleTemplate reports that a template replace lost an optimistic
// concurrency race: the row's revision moved between read and write.
var ErrStaleTemplate = errors.New("tenant template revision is stale")

// TemplateDAO wraps persistence of per-tenant template documents.
type TemplateDAO struct{}

func NewTemplateDAO() *TemplateDAO { return &TemplateDAO{} }

// GetByTenantID fetches the tenant's single template row.
func (dao *TemplateDAO) GetByTenantID(ctx context.Context, db *gorm.DB, tenantID string) (*model.TenantTemplate, error) {
	var entity model.TenantTemplate
	if err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// Create inserts a fresh template row. The tenant_id unique index
// rejects a duplicate onboarding.
func (dao *TemplateDAO) Create(ctx context.Context, db *gorm.DB, entity *model.TenantTemplate) error {
	if entity == nil {
		return errors.New("template must not be nil")
	}
	if entity.TenantID == "" {
		return errors.New("tenant_id must not be empty")
	}
	return db.WithContext(ctx).Create(entity).Error
}

// Replace writes the full document content guarded by the revision the
// caller read. A concurrent writer that advanced the revision first
// wins; the stale writer gets ErrStaleTemplate and must re-read.
func (dao *TemplateDAO) Replace(ctx context.Context, db *gorm.DB, entity *model.TenantTemplate) error {
	if entity == nil {
		return errors.New("template must not be nil")
	}
	res := db.WithContext(ctx).
		Model(&model.TenantTemplate{}).
		Where("id = ? AND revision = ?", entity.ID, entity.Revision).
		Updates(map[string]any{
			"tenant_name": entity.TenantName,
			"content":     entity.Content,
			"revision":    entity.Revision + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTemplate
	}
	entity.Revision++
	return nil
}
