package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smallbiznis/valora/biz/dal/model"

	"gorm.io/gorm"
)

// FieldFilter matches records whose attribute for Field equals Value.
type FieldFilter struct {
	Field model.ObjectField
	Value model.AttributeValue
}

// ListOptions controls record listing. Filters and sort are resolved to
// concrete fields by the caller; the DAO only knows typed columns.
type ListOptions struct {
	Page     int
	PageSize int
	Filters  []FieldFilter
	SortBy   *model.ObjectField
	SortDesc bool
}

// RecordDAO wraps CRUD and querying for object records and their
// attribute rows.
type RecordDAO struct{}

func NewRecordDAO() *RecordDAO { return &RecordDAO{} }

// Create persists a record and its attribute rows in one transaction.
// A missing record ID is assigned a UUID.
func (dao *RecordDAO) Create(ctx context.Context, db *gorm.DB, entity *model.ObjectRecord) error {
	if entity == nil {
		return errors.New("record must not be nil")
	}
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	for i := range entity.Attributes {
		entity.Attributes[i].RecordID = entity.ID
	}
	return db.WithContext(ctx).Create(entity).Error
}

// Get fetches a record with its attributes.
func (dao *RecordDAO) Get(ctx context.Context, db *gorm.DB, definitionID uint, recordID string) (*model.ObjectRecord, error) {
	var entity model.ObjectRecord
	if err := db.WithContext(ctx).
		Preload("Attributes").
		Where("id = ? AND definition_id = ?", recordID, definitionID).
		First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// UpsertAttribute writes one attribute value honoring the unique
// (record_id, field_id) pair: update in place when a row exists,
// insert otherwise.
func (dao *RecordDAO) UpsertAttribute(ctx context.Context, db *gorm.DB, recordID string, fieldID uint, value model.AttributeValue) error {
	var existing model.ObjectRecordAttribute
	err := db.WithContext(ctx).
		Where("record_id = ? AND field_id = ?", recordID, fieldID).
		First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		attr := model.ObjectRecordAttribute{RecordID: recordID, FieldID: fieldID}
		value.Apply(&attr)
		return db.WithContext(ctx).Create(&attr).Error
	}

	value.Apply(&existing)
	return db.WithContext(ctx).
		Model(&model.ObjectRecordAttribute{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"value_text":    existing.ValueText,
			"value_number":  existing.ValueNumber,
			"value_date":    existing.ValueDate,
			"value_boolean": existing.ValueBoolean,
		}).Error
}

// Touch stamps the record's auditing columns.
func (dao *RecordDAO) Touch(ctx context.Context, db *gorm.DB, recordID, updatedBy string) error {
	return db.WithContext(ctx).
		Model(&model.ObjectRecord{}).
		Where("id = ?", recordID).
		Update("updated_by", updatedBy).Error
}

// Delete hard-deletes a record and its attribute rows.
func (dao *RecordDAO) Delete(ctx context.Context, db *gorm.DB, definitionID uint, recordID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("record_id = ?", recordID).
			Delete(&model.ObjectRecordAttribute{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().
			Where("id = ? AND definition_id = ?", recordID, definitionID).
			Delete(&model.ObjectRecord{}).Error
	})
}

// List returns one page of records plus the unpaged total. Filters are
// EXISTS subqueries against the typed value column; sort joins the sort
// field's attribute row.
func (dao *RecordDAO) List(ctx context.Context, db *gorm.DB, definitionID uint, opts ListOptions) ([]model.ObjectRecord, int64, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	tx := db.WithContext(ctx).
		Model(&model.ObjectRecord{}).
		Where("object_record.definition_id = ?", definitionID)

	for _, filter := range opts.Filters {
		column, arg := typedColumn(filter.Value)
		tx = tx.Where(
			fmt.Sprintf(
				"EXISTS (SELECT 1 FROM object_record_attribute fa WHERE fa.record_id = object_record.id AND fa.field_id = ? AND fa.%s = ?)",
				column,
			),
			filter.Field.ID, arg,
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.SortBy != nil {
		column := columnForDataType(opts.SortBy.DataType)
		direction := "ASC"
		if opts.SortDesc {
			direction = "DESC"
		}
		tx = tx.
			Joins("LEFT JOIN object_record_attribute sa ON sa.record_id = object_record.id AND sa.field_id = ?", opts.SortBy.ID).
			Order(fmt.Sprintf("sa.%s %s", column, direction))
	} else {
		tx = tx.Order("object_record.created_at DESC")
	}

	var entities []model.ObjectRecord
	if err := tx.
		Preload("Attributes").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func typedColumn(value model.AttributeValue) (string, any) {
	switch value.Kind {
	case model.KindNumber:
		return "value_number", value.Number
	case model.KindDate:
		return "value_date", value.Date
	case model.KindBoolean:
		return "value_boolean", value.Boolean
	default:
		return "value_text", value.Text
	}
}

func columnForDataType(dataType string) string {
	switch dataType {
	case model.DataTypeNumber:
		return "value_number"
	case model.DataTypeDate:
		return "value_date"
	case model.DataTypeBoolean:
		return "value_boolean"
	default:
		return "value_text"
	}
}
