package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/valora/biz/dal/model"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/pkg/common"

	"gorm.io/gorm"
)

// defaultMaxAttachmentSize caps uploads when the object's schema does
// not set its own limit.
const defaultMaxAttachmentSize = 10 << 20

// UploadInput describes one incoming attachment.
type UploadInput struct {
	ObjectCode  string
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// AttachmentResult is the wire shape of a stored attachment.
type AttachmentResult struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// attachmentPolicy resolves the object's attachment config from the
// latest schema, published or not. Objects without a config reject
// uploads.
func (s *Service) attachmentPolicy(ctx context.Context, tc common.TenantContext, env, objectCode string) (*schema.AttachmentConfig, error) {
	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	res, err := schema.Latest(doc, env, objectCode)
	if err != nil {
		return nil, err
	}
	ms, err := schema.ParseModuleSchema(res.Document)
	if err != nil {
		return nil, err
	}
	if ms.AttachmentConfig == nil || !ms.AttachmentConfig.Enabled {
		return nil, validationf("attachments are not enabled for object %s", objectCode)
	}
	return ms.AttachmentConfig, nil
}

func allowedContentType(policy *schema.AttachmentConfig, contentType string) bool {
	if len(policy.AllowedTypes) == 0 {
		return true
	}
	for _, allowed := range policy.AllowedTypes {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
		// "image/*" style wildcards
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok &&
			strings.HasPrefix(strings.ToLower(contentType), strings.ToLower(prefix)+"/") {
			return true
		}
	}
	return false
}

// UploadAttachment stores a file for an object after checking the
// object's attachment policy, then records its metadata.
func (s *Service) UploadAttachment(ctx context.Context, tc common.TenantContext, input UploadInput) (*AttachmentResult, error) {
	if s.store == nil {
		return nil, errors.New("attachment storage is not configured")
	}
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	if input.ObjectCode == "" {
		return nil, validationf("object code is required")
	}
	if input.FileName == "" {
		return nil, validationf("file name is required")
	}

	policy, err := s.attachmentPolicy(ctx, tc, env, input.ObjectCode)
	if err != nil {
		return nil, err
	}
	maxSize := policy.MaxSizeBytes
	if maxSize <= 0 {
		maxSize = defaultMaxAttachmentSize
	}
	if input.Size > maxSize {
		return nil, validationf("file exceeds the %d byte limit", maxSize)
	}
	if !allowedContentType(policy, input.ContentType) {
		return nil, validationf("content type %q is not allowed", input.ContentType)
	}

	fileID := uuid.NewString()
	key := fileID + "/" + input.FileName
	if err := s.store.PutObject(ctx, key, input.Data, input.ContentType, input.Size); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	entity := &model.Attachment{
		TenantID:    tc.TenantID,
		ObjectCode:  input.ObjectCode,
		FileID:      fileID,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		StorageType: s.store.Type(),
		UploadedBy:  tc.UserID,
	}
	if err := s.logic.attachmentDAO.Create(ctx, s.logic.db, entity); err != nil {
		// best effort rollback of the stored object
		_ = s.store.DeleteObject(ctx, key)
		return nil, err
	}

	url, err := s.store.GenerateURL(ctx, key, input.FileName)
	if err != nil {
		return nil, err
	}
	return &AttachmentResult{
		FileID:      fileID,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		URL:         url,
	}, nil
}

// GetFile streams a stored attachment. The caller owns the reader.
func (s *Service) GetFile(ctx context.Context, fileID string) (*model.Attachment, io.ReadCloser, error) {
	if s.store == nil {
		return nil, nil, errors.New("attachment storage is not configured")
	}
	entity, err := s.logic.attachmentDAO.GetByFileID(ctx, s.logic.db, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("file %s: %w", fileID, ErrAttachmentNotFound)
		}
		return nil, nil, err
	}
	reader, err := s.store.GetObject(ctx, entity.FileID+"/"+entity.FileName)
	if err != nil {
		return nil, nil, fmt.Errorf("file %s: %w", fileID, ErrAttachmentNotFound)
	}
	return entity, reader, nil
}

// ListAttachments returns an object's attachment metadata.
func (s *Service) ListAttachments(ctx context.Context, tc common.TenantContext, objectCode string) ([]AttachmentResult, error) {
	if s.store == nil {
		return nil, errors.New("attachment storage is not configured")
	}
	rows, err := s.logic.attachmentDAO.ListByObject(ctx, s.logic.db, tc.TenantID, objectCode)
	if err != nil {
		return nil, err
	}
	out := make([]AttachmentResult, 0, len(rows))
	for _, row := range rows {
		url, err := s.store.GenerateURL(ctx, row.FileID+"/"+row.FileName, row.FileName)
		if err != nil {
			return nil, err
		}
		out = append(out, AttachmentResult{
			FileID:      row.FileID,
			FileName:    row.FileName,
			ContentType: row.ContentType,
			Size:        row.Size,
			URL:         url,
		})
	}
	return out, nil
}

// DeleteAttachment removes the stored object and its metadata row.
// Deleting an absent attachment is a no-op.
func (s *Service) DeleteAttachment(ctx context.Context, tc common.TenantContext, fileID string) error {
	if s.store == nil {
		return errors.New("attachment storage is not configured")
	}
	entity, err := s.logic.attachmentDAO.GetByFileID(ctx, s.logic.db, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if entity.TenantID != tc.TenantID {
		return fmt.Errorf("file %s: %w", fileID, ErrAttachmentNotFound)
	}
	if err := s.store.DeleteObject(ctx, entity.FileID+"/"+entity.FileName); err != nil {
		return err
	}
	return s.logic.attachmentDAO.Delete(ctx, s.logic.db, fileID)
}
