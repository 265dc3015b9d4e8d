package service

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/valora/biz/dal/db"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed input rejected before any I/O.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks a role-based denial of a privileged operation.
	ErrForbidden = errors.New("operation not permitted for caller role")
	// ErrProdUnpublish blocks unpublish when the current environment is prod.
	ErrProdUnpublish = errors.New("unpublish is blocked in the prod environment")
	// ErrTenantExists rejects a duplicate tenant onboarding.
	ErrTenantExists = errors.New("tenant is already onboarded")
	// ErrSchemaNotFound reports a missing schema for a calculation run,
	// distinct from a calculation-logic failure.
	ErrSchemaNotFound = errors.New("schema not found for module")
	// ErrCalculation reports a formula evaluation failure.
	ErrCalculation = errors.New("calculation failed")
	// ErrRecordNotFound reports a missing entity record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDefinitionNotFound reports a missing object definition.
	ErrDefinitionNotFound = errors.New("object definition not found")
	// ErrDefinitionExists rejects a duplicate object definition.
	ErrDefinitionExists = errors.New("object definition already exists")
	// ErrAttachmentNotFound reports a missing attachment.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Logic contains business rules on top of data persistence.
type Logic struct {
	db            *gorm.DB
	templateDAO   *db.TemplateDAO
	definitionDAO *db.DefinitionDAO
	recordDAO     *db.RecordDAO
	attachmentDAO *db.AttachmentDAO
}

func NewLogic(dbConn *gorm.DB) *Logic {
	return &Logic{
		db:            dbConn,
		templateDAO:   db.NewTemplateDAO(),
		definitionDAO: db.NewDefinitionDAO(),
		recordDAO:     db.NewRecordDAO(),
		attachmentDAO: db.NewAttachmentDAO(),
	}
}
