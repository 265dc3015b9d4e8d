package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/valora/biz/dal/db"
	"github.com/smallbiznis/valora/biz/dal/model"
	"github.com/smallbiznis/valora/pkg/common"

	"gorm.io/gorm"
)

// FieldInput declares one field of a new object definition.
type FieldInput struct {
	FieldName string `json:"fieldName"`
	DataType  string `json:"dataType"`
	Required  bool   `json:"required"`
	SortOrder int    `json:"sortOrder"`
}

// DefinitionInput is the payload for creating an object definition.
type DefinitionInput struct {
	Module      string       `json:"module"`
	DisplayName string       `json:"displayName"`
	Fields      []FieldInput `json:"fields"`
}

// EntityRecord is one object record with its attributes decoded back
// into a field-name keyed map.
type EntityRecord struct {
	ID        string         `json:"id"`
	Module    string         `json:"module"`
	Values    map[string]any `json:"values"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	CreatedBy string         `json:"createdBy,omitempty"`
	UpdatedBy string         `json:"updatedBy,omitempty"`
}

// ListQuery carries paging, filtering and sorting for a record listing.
// Filter keys and the sort field are matched case-insensitively against
// the definition's field names.
type ListQuery struct {
	Page     int
	PageSize int
	Filters  map[string]any
	SortBy   string
	SortDesc bool
}

// EntityPage is one page of a record listing.
type EntityPage struct {
	Items    []EntityRecord `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

var validDataTypes = map[string]bool{
	model.DataTypeText:    true,
	model.DataTypeNumber:  true,
	model.DataTypeDate:    true,
	model.DataTypeBoolean: true,
}

// CreateDefinition registers a new object definition with its fields.
func (s *Service) CreateDefinition(ctx context.Context, tc common.TenantContext, input DefinitionInput) (*model.ObjectDefinition, error) {
	if input.Module == "" {
		return nil, validationf("module is required")
	}
	if len(input.Fields) == 0 {
		return nil, validationf("at least one field is required")
	}
	seen := make(map[string]bool, len(input.Fields))
	fields := make([]model.ObjectField, 0, len(input.Fields))
	for i, f := range input.Fields {
		if f.FieldName == "" {
			return nil, validationf("field %d has no name", i)
		}
		lower := strings.ToLower(f.FieldName)
		if seen[lower] {
			return nil, validationf("duplicate field %q", f.FieldName)
		}
		seen[lower] = true
		if !validDataTypes[f.DataType] {
			return nil, validationf("field %q has unknown data type %q", f.FieldName, f.DataType)
		}
		sortOrder := f.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		fields = append(fields, model.ObjectField{
			FieldName: f.FieldName,
			DataType:  f.DataType,
			Required:  f.Required,
			SortOrder: sortOrder,
		})
	}

	if _, err := s.logic.definitionDAO.GetByModule(ctx, s.logic.db, tc.TenantID, input.Module); err == nil {
		return nil, fmt.Errorf("module %s: %w", input.Module, ErrDefinitionExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity := &model.ObjectDefinition{
		TenantID:    tc.TenantID,
		Module:      input.Module,
		DisplayName: input.DisplayName,
		IsActive:    true,
		Fields:      fields,
	}
	if err := s.logic.definitionDAO.Create(ctx, s.logic.db, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// GetDefinition fetches an active definition with its fields.
func (s *Service) GetDefinition(ctx context.Context, tc common.TenantContext, module string) (*model.ObjectDefinition, error) {
	return s.loadDefinition(ctx, tc, module)
}

// ListDefinitions returns all active definitions of the tenant.
func (s *Service) ListDefinitions(ctx context.Context, tc common.TenantContext) ([]model.ObjectDefinition, error) {
	return s.logic.definitionDAO.ListByTenant(ctx, s.logic.db, tc.TenantID)
}

// DeleteDefinition removes a definition and everything under it.
// Deleting an absent definition is a no-op.
func (s *Service) DeleteDefinition(ctx context.Context, tc common.TenantContext, module string) error {
	return s.logic.definitionDAO.Delete(ctx, s.logic.db, tc.TenantID, module)
}

func (s *Service) loadDefinition(ctx context.Context, tc common.TenantContext, module string) (*model.ObjectDefinition, error) {
	def, err := s.logic.definitionDAO.GetByModule(ctx, s.logic.db, tc.TenantID, module)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module %s: %w", module, ErrDefinitionNotFound)
		}
		return nil, err
	}
	return def, nil
}

// fieldIndex keys a definition's fields by case-folded name.
func fieldIndex(def *model.ObjectDefinition) map[string]*model.ObjectField {
	idx := make(map[string]*model.ObjectField, len(def.Fields))
	for i := range def.Fields {
		idx[strings.ToLower(def.Fields[i].FieldName)] = &def.Fields[i]
	}
	return idx
}

// parseValues resolves payload keys against the definition and coerces
// each value into its field's data type. Keys that match no declared
// field are dropped rather than rejected.
func parseValues(def *model.ObjectDefinition, values map[string]any) (map[uint]model.AttributeValue, error) {
	idx := fieldIndex(def)
	parsed := make(map[uint]model.AttributeValue, len(values))
	for name, raw := range values {
		field, ok := idx[strings.ToLower(name)]
		if !ok {
			continue
		}
		value, err := model.ParseAttributeValue(field.DataType, raw)
		if err != nil {
			return nil, validationf("field %q: %v", field.FieldName, err)
		}
		parsed[field.ID] = value
	}
	return parsed, nil
}

// CreateEntity stores one record. Required fields must all be present;
// payload keys matching no declared field are dropped.
func (s *Service) CreateEntity(ctx context.Context, tc common.TenantContext, module string, values map[string]any) (*EntityRecord, error) {
	def, err := s.loadDefinition(ctx, tc, module)
	if err != nil {
		return nil, err
	}

	for _, field := range def.Fields {
		if !field.Required {
			continue
		}
		found := false
		for name := range values {
			if strings.EqualFold(name, field.FieldName) {
				found = true
				break
			}
		}
		if !found {
			return nil, validationf("required field %q is missing", field.FieldName)
		}
	}

	parsed, err := parseValues(def, values)
	if err != nil {
		return nil, err
	}

	entity := &model.ObjectRecord{
		DefinitionID: def.ID,
		CreatedBy:    tc.UserID,
		UpdatedBy:    tc.UserID,
	}
	for fieldID, value := range parsed {
		attr := model.ObjectRecordAttribute{FieldID: fieldID}
		value.Apply(&attr)
		entity.Attributes = append(entity.Attributes, attr)
	}
	if err := s.logic.recordDAO.Create(ctx, s.logic.db, entity); err != nil {
		return nil, err
	}
	return decodeRecord(def, entity), nil
}

// UpdateEntity writes a partial set of field values onto an existing
// record. Each value lands in its typed column, replacing any previous
// value for the same field.
func (s *Service) UpdateEntity(ctx context.Context, tc common.TenantContext, module, recordID string, values map[string]any) (*EntityRecord, error) {
	def, err := s.loadDefinition(ctx, tc, module)
	if err != nil {
		return nil, err
	}
	if _, err := s.logic.recordDAO.Get(ctx, s.logic.db, def.ID, recordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %s: %w", recordID, ErrRecordNotFound)
		}
		return nil, err
	}
	parsed, err := parseValues(def, values)
	if err != nil {
		return nil, err
	}

	for fieldID, value := range parsed {
		if err := s.logic.recordDAO.UpsertAttribute(ctx, s.logic.db, recordID, fieldID, value); err != nil {
			return nil, err
		}
	}
	if err := s.logic.recordDAO.Touch(ctx, s.logic.db, recordID, tc.UserID); err != nil {
		return nil, err
	}

	entity, err := s.logic.recordDAO.Get(ctx, s.logic.db, def.ID, recordID)
	if err != nil {
		return nil, err
	}
	return decodeRecord(def, entity), nil
}

// GetEntity fetches one record with decoded attribute values.
func (s *Service) GetEntity(ctx context.Context, tc common.TenantContext, module, recordID string) (*EntityRecord, error) {
	def, err := s.loadDefinition(ctx, tc, module)
	if err != nil {
		return nil, err
	}
	entity, err := s.logic.recordDAO.Get(ctx, s.logic.db, def.ID, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %s: %w", recordID, ErrRecordNotFound)
		}
		return nil, err
	}
	return decodeRecord(def, entity), nil
}

// DeleteEntity removes a record and its attributes. Deleting an absent
// record is a no-op.
func (s *Service) DeleteEntity(ctx context.Context, tc common.TenantContext, module, recordID string) error {
	def, err := s.loadDefinition(ctx, tc, module)
	if err != nil {
		return err
	}
	if err := s.logic.recordDAO.Delete(ctx, s.logic.db, def.ID, recordID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// ListEntities pages through a definition's records with optional
// attribute filters and sorting.
func (s *Service) ListEntities(ctx context.Context, tc common.TenantContext, module string, query ListQuery) (*EntityPage, error) {
	def, err := s.loadDefinition(ctx, tc, module)
	if err != nil {
		return nil, err
	}

	idx := fieldIndex(def)
	opts := db.ListOptions{
		Page:     query.Page,
		PageSize: query.PageSize,
		SortDesc: query.SortDesc,
	}
	for name, raw := range query.Filters {
		field, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, validationf("unknown filter field %q", name)
		}
		value, err := model.ParseAttributeValue(field.DataType, raw)
		if err != nil {
			return nil, validationf("filter %q: %v", field.FieldName, err)
		}
		opts.Filters = append(opts.Filters, db.FieldFilter{Field: *field, Value: value})
	}
	if query.SortBy != "" {
		field, ok := idx[strings.ToLower(query.SortBy)]
		if !ok {
			return nil, validationf("unknown sort field %q", query.SortBy)
		}
		opts.SortBy = field
	}

	records, total, err := s.logic.recordDAO.List(ctx, s.logic.db, def.ID, opts)
	if err != nil {
		return nil, err
	}

	page := &EntityPage{
		Items:    make([]EntityRecord, 0, len(records)),
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.PageSize,
	}
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.PageSize <= 0 {
		page.PageSize = len(records)
	}
	for i := range records {
		page.Items = append(page.Items, *decodeRecord(def, &records[i]))
	}
	return page, nil
}

// decodeRecord maps attribute rows back to field-name keyed values.
func decodeRecord(def *model.ObjectDefinition, entity *model.ObjectRecord) *EntityRecord {
	byID := make(map[uint]model.ObjectField, len(def.Fields))
	for _, f := range def.Fields {
		byID[f.ID] = f
	}
	values := make(map[string]any, len(entity.Attributes))
	for _, attr := range entity.Attributes {
		field, ok := byID[attr.FieldID]
		if !ok {
			continue
		}
		values[field.FieldName] = model.DecodeAttributeValue(field.DataType, attr).Any()
	}
	return &EntityRecord{
		ID:        entity.ID,
		Module:    def.Module,
		Values:    values,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
		CreatedBy: entity.CreatedBy,
		UpdatedBy: entity.UpdatedBy,
	}
}
