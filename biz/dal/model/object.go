package model

import (
	"time"

	"gorm.io/gorm"
)

// Attribute data types. Each selects which typed value column an
// attribute row populates.
const (
	DataTypeText    = "text"
	DataTypeNumber  = "number"
	DataTypeDate    = "date"
	DataTypeBoolean = "boolean"
)

// ObjectDefinition is the relational root of one tenant-defined object.
// Fields and records are exclusively owned and destroyed with it.
type ObjectDefinition struct {
	ID          uint           `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	TenantID    string         `gorm:"column:tenant_id;uniqueIndex:uk_object_definition,priority:1;index:idx_definition_tenant" json:"tenant_id,omitempty"`
	Module      string         `gorm:"column:module;uniqueIndex:uk_object_definition,priority:2" json:"module,omitempty"`
	DisplayName string         `gorm:"column:display_name" json:"display_name,omitempty"`
	IsActive    bool           `gorm:"column:is_active;default:true" json:"is_active,omitempty"`

	Fields  []ObjectField  `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
	Records []ObjectRecord `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides gorm to use the object_definition table.
func (ObjectDefinition) TableName() string {
	return "object_definition"
}

// ObjectField declares one typed attribute of a definition.
type ObjectField struct {
	ID           uint      `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
	DefinitionID uint      `gorm:"column:definition_id;uniqueIndex:uk_object_field,priority:1;index:idx_field_definition" json:"definition_id,omitempty"`
	FieldName    string    `gorm:"column:field_name;uniqueIndex:uk_object_field,priority:2" json:"field_name,omitempty"`
	DataType     string    `gorm:"column:data_type" json:"data_type,omitempty"`
	Required     bool      `gorm:"column:required" json:"required,omitempty"`
	SortOrder    int       `gorm:"column:sort_order;default:0" json:"sort_order,omitempty"`
}

// TableName overrides gorm to use the object_field table.
func (ObjectField) TableName() string {
	return "object_field"
}

// ObjectRecord is one stored instance of a tenant-defined object.
type ObjectRecord struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id,omitempty"`
	CreatedAt    time.Time      `json:"created_at,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	DefinitionID uint           `gorm:"column:definition_id;index:idx_record_definition" json:"definition_id,omitempty"`
	CreatedBy    string         `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy    string         `gorm:"column:updated_by" json:"updated_by,omitempty"`

	Attributes []ObjectRecordAttribute `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"attributes,omitempty"`
}

// TableName overrides gorm to use the object_record table.
func (ObjectRecord) TableName() string {
	return "object_record"
}

// ObjectRecordAttribute stores one field value of one record. The
// (record_id, field_id) pair is unique: at most one value per field per
// record, so writes are update-in-place rather than append.
type ObjectRecordAttribute struct {
	ID        uint      `gorm:"primaryKey" json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	RecordID  string    `gorm:"column:record_id;size:36;uniqueIndex:uk_record_field,priority:1;index:idx_attribute_record" json:"record_id,omitempty"`
	FieldID   uint      `gorm:"column:field_id;uniqueIndex:uk_record_field,priority:2" json:"field_id,omitempty"`

	ValueText    *string    `gorm:"column:value_text;type:text" json:"value_text,omitempty"`
	ValueNumber  *float64   `gorm:"column:value_number" json:"value_number,omitempty"`
	ValueDate    *time.Time `gorm:"column:value_date" json:"value_date,omitempty"`
	ValueBoolean *bool      `gorm:"column:value_boolean" json:"value_boolean,omitempty"`
}

// TableName overrides gorm to use the object_record_attribute table.
func (ObjectRecordAttribute) TableName() string {
	return "object_record_attribute"
}
