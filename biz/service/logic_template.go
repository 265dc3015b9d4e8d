package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/valora/biz/dal/model"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/pkg/constants"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// loadTemplate fetches the tenant's template row and decodes its
// document tree. Reads never create; a missing row surfaces as a
// tenant-document not-found.
func (l *Logic) loadTemplate(ctx context.Context, tenantID string) (*model.TenantTemplate, *schema.TemplateDocument, error) {
	row, err := l.templateDAO.GetByTenantID(ctx, l.db, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &schema.NotFoundError{Segment: "tenant document", Key: tenantID}
		}
		return nil, nil, err
	}
	doc, err := schema.ParseTemplate(row.Content)
	if err != nil {
		return nil, nil, err
	}
	if doc.TenantID == "" {
		doc.TenantID = tenantID
	}
	return row, doc, nil
}

// loadOrCreateTemplate is the write-path variant: a missing row is
// created with the default environment set before the mutation runs.
func (l *Logic) loadOrCreateTemplate(ctx context.Context, tenantID, tenantName string) (*model.TenantTemplate, *schema.TemplateDocument, error) {
	row, doc, err := l.loadTemplate(ctx, tenantID)
	if err == nil {
		return row, doc, nil
	}
	if !errors.Is(err, schema.ErrNotFound) {
		return nil, nil, err
	}

	if err := l.createTemplate(ctx, tenantID, tenantName); err != nil {
		return nil, nil, err
	}
	return l.loadTemplate(ctx, tenantID)
}

// createTemplate provisions the tenant row with an empty document tree
// covering the default environment set.
func (l *Logic) createTemplate(ctx context.Context, tenantID, tenantName string) error {
	doc := newTenantDocument(tenantID, tenantName)
	content, err := doc.Encode()
	if err != nil {
		return err
	}
	row := &model.TenantTemplate{
		TenantID:   tenantID,
		TenantName: tenantName,
		Content:    datatypes.JSON(content),
	}
	if err := l.templateDAO.Create(ctx, l.db, row); err != nil {
		return fmt.Errorf("create tenant template: %w", err)
	}
	return nil
}

// saveTemplate re-encodes the mutated tree and replaces the stored
// content under the revision read at load time.
func (l *Logic) saveTemplate(ctx context.Context, row *model.TenantTemplate, doc *schema.TemplateDocument) error {
	content, err := doc.Encode()
	if err != nil {
		return err
	}
	row.Content = datatypes.JSON(content)
	return l.templateDAO.Replace(ctx, l.db, row)
}

func newTenantDocument(tenantID, tenantName string) *schema.TemplateDocument {
	doc := &schema.TemplateDocument{
		TenantID:     tenantID,
		TenantName:   tenantName,
		Environments: make(map[string]*schema.Environment),
	}
	for _, env := range constants.DefaultEnvironments {
		doc.Environments[env] = &schema.Environment{}
	}
	return doc
}
