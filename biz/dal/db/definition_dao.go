package db

import (
	"context"
	"errors"

	"github.com/smallbiznis/valora/biz/dal/model"

	"gorm.io/gorm"
)

// DefinitionDAO wraps CRUD for object definitions and their fields.
type DefinitionDAO struct{}

func NewDefinitionDAO() *DefinitionDAO { return &DefinitionDAO{} }

// Create persists a definition together with its declared fields.
func (dao *DefinitionDAO) Create(ctx context.Context, db *gorm.DB, entity *model.ObjectDefinition) error {
	if entity == nil {
		return errors.New("definition must not be nil")
	}
	if entity.TenantID == "" || entity.Module == "" {
		return errors.New("tenant_id and module must not be empty")
	}
	return db.WithContext(ctx).Create(entity).Error
}

// GetByModule fetches the tenant's active definition for a module,
// fields preloaded in declaration order. Module matching ignores case.
func (dao *DefinitionDAO) GetByModule(ctx context.Context, db *gorm.DB, tenantID, module string) (*model.ObjectDefinition, error) {
	var entity model.ObjectDefinition
	if err := db.WithContext(ctx).
		Preload("Fields", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order ASC, id ASC")
		}).
		Where("tenant_id = ? AND LOWER(module) = LOWER(?) AND is_active = ?", tenantID, module, true).
		First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListByTenant returns all active definitions for a tenant.
func (dao *DefinitionDAO) ListByTenant(ctx context.Context, db *gorm.DB, tenantID string) ([]model.ObjectDefinition, error) {
	var entities []model.ObjectDefinition
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("module ASC").
		Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Delete hard-deletes a definition. Field and record rows go with it
// through the declared cascades; for drivers without foreign key
// enforcement the children are removed explicitly in one transaction.
func (dao *DefinitionDAO) Delete(ctx context.Context, db *gorm.DB, tenantID, module string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity model.ObjectDefinition
		if err := tx.Where("tenant_id = ? AND LOWER(module) = LOWER(?)", tenantID, module).
			First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var recordIDs []string
		if err := tx.Model(&model.ObjectRecord{}).
			Where("definition_id = ?", entity.ID).
			Pluck("id", &recordIDs).Error; err != nil {
			return err
		}
		if len(recordIDs) > 0 {
			if err := tx.Unscoped().
				Where("record_id IN ?", recordIDs).
				Delete(&model.ObjectRecordAttribute{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().
				Where("definition_id = ?", entity.ID).
				Delete(&model.ObjectRecord{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().
			Where("definition_id = ?", entity.ID).
			Delete(&model.ObjectField{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&entity).Error
	})
}
