package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TenantTemplate holds one tenant's entire template document: the
// nested environments -> screens -> versions tree, stored as JSON.
// Revision is an optimistic concurrency token checked on every replace;
// a stale writer loses with a conflict instead of silently discarding
// a concurrent change.
type TenantTemplate struct {
	ID         uint           `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID   string         `gorm:"column:tenant_id;uniqueIndex:uk_tenant_template" json:"tenant_id,omitempty"`
	TenantName string         `gorm:"column:tenant_name" json:"tenant_name,omitempty"`
	Revision   int64          `gorm:"column:revision;default:0" json:"revision,omitempty"`
	Content    datatypes.JSON `gorm:"column:content" json:"content,omitempty"`
}

// TableName overrides gorm to use the tenant_template table.
func (TenantTemplate) TableName() string {
	return "tenant_template"
}

// Attachment records one uploaded file tied to a tenant's object code.
// The payload itself lives in the storage backend under
// "{FileID}/{FileName}".
type Attachment struct {
	ID          uint           `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID    string         `gorm:"column:tenant_id;index:idx_attachment_tenant" json:"tenant_id,omitempty"`
	ObjectCode  string         `gorm:"column:object_code;index:idx_attachment_object" json:"object_code,omitempty"`
	FileID      string         `gorm:"column:file_id;uniqueIndex:uk_attachment_file;size:36" json:"file_id,omitempty"`
	FileName    string         `gorm:"column:file_name" json:"file_name,omitempty"`
	ContentType string         `gorm:"column:content_type" json:"content_type,omitempty"`
	Size        int64          `gorm:"column:size" json:"size,omitempty"`
	StorageType string         `gorm:"column:storage_type" json:"storage_type,omitempty"`
	UploadedBy  string         `gorm:"column:uploaded_by" json:"uploaded_by,omitempty"`
}

// TableName overrides gorm to use the attachment table.
func (Attachment) TableName() string {
	return "attachment"
}
