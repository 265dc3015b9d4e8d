package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/smallbiznis/valora/biz/service"
)

// AttachmentHandler serves file uploads and downloads for objects.
type AttachmentHandler struct {
	svc *service.Service
}

func NewAttachmentHandler(svc *service.Service) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload stores a multipart file against an object. The object's
// schema decides whether uploads are allowed and how large they may be.
func (h *AttachmentHandler) Upload(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, tc.TenantID, "attachment", "upload", service.ErrValidation)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, tc.TenantID, "attachment", "upload", err)
		return
	}
	defer file.Close()

	result, err := h.svc.UploadAttachment(ctx, tc, service.UploadInput{
		ObjectCode:  objectCode,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Data:        file,
	})
	if err != nil {
		respondError(c, tc.TenantID, "attachment", "upload", err)
		return
	}
	respondOK(c, tc.TenantID, "attachment", "upload", result)
}

// GetFile streams stored attachment content back to the client.
func (h *AttachmentHandler) GetFile(ctx context.Context, c *app.RequestContext) {
	fileID := c.Param("fileId")

	entity, reader, err := h.svc.GetFile(ctx, fileID)
	if err != nil {
		respondError(c, "", "attachment", "get", err)
		return
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		respondError(c, "", "attachment", "get", err)
		return
	}

	contentType := entity.ContentType
	if contentType == "" {
		contentType = consts.MIMEApplicationOctetStream
	}
	if entity.FileName != "" {
		c.Response.Header.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", entity.FileName))
	}
	c.Data(consts.StatusOK, contentType, content)
}

// List returns an object's attachment metadata.
func (h *AttachmentHandler) List(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	objectCode := c.Param("objectCode")

	results, err := h.svc.ListAttachments(ctx, tc, objectCode)
	if err != nil {
		respondError(c, tc.TenantID, "attachment", "list", err)
		return
	}
	respondOK(c, tc.TenantID, "attachment", "list", results)
}

// Delete removes one attachment and its stored content.
func (h *AttachmentHandler) Delete(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	fileID := c.Param("fileId")

	if err := h.svc.DeleteAttachment(ctx, tc, fileID); err != nil {
		respondError(c, tc.TenantID, "attachment", "delete", err)
		return
	}
	respondOK(c, tc.TenantID, "attachment", "delete", map[string]any{"fileId": fileID})
}
