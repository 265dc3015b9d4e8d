package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smallbiznis/valora/biz/dal/model"

	"gorm.io/gorm"
)

// AttachmentDAO wraps persistence of attachment metadata rows.
type AttachmentDAO struct{}

func NewAttachmentDAO() *AttachmentDAO { return &AttachmentDAO{} }

// Create persists attachment metadata. A missing file ID is assigned a
// UUID before insert.
func (dao *AttachmentDAO) Create(ctx context.Context, db *gorm.DB, entity *model.Attachment) error {
	if entity == nil {
		return errors.New("attachment must not be nil")
	}
	if entity.FileID == "" {
		entity.FileID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(entity).Error
}

// GetByFileID fetches one attachment by its file ID.
func (dao *AttachmentDAO) GetByFileID(ctx context.Context, db *gorm.DB, fileID string) (*model.Attachment, error) {
	var entity model.Attachment
	if err := db.WithContext(ctx).
		Where("file_id = ?", fileID).
		First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListByObject returns a tenant's attachments for one object code.
func (dao *AttachmentDAO) ListByObject(ctx context.Context, db *gorm.DB, tenantID, objectCode string) ([]model.Attachment, error) {
	var entities []model.Attachment
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND object_code = ?", tenantID, objectCode).
		Order("created_at DESC").
		Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Delete hard-deletes attachment metadata by file ID.
func (dao *AttachmentDAO) Delete(ctx context.Context, db *gorm.DB, fileID string) error {
	return db.WithContext(ctx).
		Unscoped().
		Where("file_id = ?", fileID).
		Delete(&model.Attachment{}).Error
}
