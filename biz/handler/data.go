package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/smallbiznis/valora/biz/service"
)

// DataHandler serves object definitions and their records.
type DataHandler struct {
	svc *service.Service
}

func NewDataHandler(svc *service.Service) *DataHandler {
	return &DataHandler{svc: svc}
}

// CreateDefinition registers an object definition with its fields.
func (h *DataHandler) CreateDefinition(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)

	var input service.DefinitionInput
	if err := json.Unmarshal(c.Request.Body(), &input); err != nil {
		respondError(c, tc.TenantID, "definition", "create", service.ErrValidation)
		return
	}

	def, err := h.svc.CreateDefinition(ctx, tc, input)
	if err != nil {
		respondError(c, tc.TenantID, "definition", "create", err)
		return
	}
	respondOK(c, tc.TenantID, "definition", "create", def)
}

// GetDefinition returns one definition with its fields.
func (h *DataHandler) GetDefinition(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")

	def, err := h.svc.GetDefinition(ctx, tc, module)
	if err != nil {
		respondError(c, tc.TenantID, "definition", "get", err)
		return
	}
	respondOK(c, tc.TenantID, "definition", "get", def)
}

// ListDefinitions returns the tenant's active definitions.
func (h *DataHandler) ListDefinitions(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)

	defs, err := h.svc.ListDefinitions(ctx, tc)
	if err != nil {
		respondError(c, tc.TenantID, "definition", "list", err)
		return
	}
	respondOK(c, tc.TenantID, "definition", "list", defs)
}

// DeleteDefinition removes a definition and its records.
func (h *DataHandler) DeleteDefinition(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")

	if err := h.svc.DeleteDefinition(ctx, tc, module); err != nil {
		respondError(c, tc.TenantID, "definition", "delete", err)
		return
	}
	respondOK(c, tc.TenantID, "definition", "delete", map[string]any{"module": module})
}

// CreateRecord stores a record of the module's object type.
func (h *DataHandler) CreateRecord(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")

	var values map[string]any
	if err := json.Unmarshal(c.Request.Body(), &values); err != nil {
		respondError(c, tc.TenantID, "record", "create", service.ErrValidation)
		return
	}

	record, err := h.svc.CreateEntity(ctx, tc, module, values)
	if err != nil {
		respondError(c, tc.TenantID, "record", "create", err)
		return
	}
	respondOK(c, tc.TenantID, "record", "create", record)
}

// GetRecord returns one record with decoded values.
func (h *DataHandler) GetRecord(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")
	recordID := c.Param("recordId")

	record, err := h.svc.GetEntity(ctx, tc, module, recordID)
	if err != nil {
		respondError(c, tc.TenantID, "record", "get", err)
		return
	}
	respondOK(c, tc.TenantID, "record", "get", record)
}

// UpdateRecord writes a partial set of field values onto a record.
func (h *DataHandler) UpdateRecord(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")
	recordID := c.Param("recordId")

	var values map[string]any
	if err := json.Unmarshal(c.Request.Body(), &values); err != nil {
		respondError(c, tc.TenantID, "record", "update", service.ErrValidation)
		return
	}

	record, err := h.svc.UpdateEntity(ctx, tc, module, recordID, values)
	if err != nil {
		respondError(c, tc.TenantID, "record", "update", err)
		return
	}
	respondOK(c, tc.TenantID, "record", "update", record)
}

// DeleteRecord removes a record and its attribute rows.
func (h *DataHandler) DeleteRecord(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")
	recordID := c.Param("recordId")

	if err := h.svc.DeleteEntity(ctx, tc, module, recordID); err != nil {
		respondError(c, tc.TenantID, "record", "delete", err)
		return
	}
	respondOK(c, tc.TenantID, "record", "delete", map[string]any{"id": recordID})
}

// ListRecords pages through a module's records. Filters arrive as
// filter.<fieldName>=<value> query parameters; sorting via sort_by and
// sort_desc.
func (h *DataHandler) ListRecords(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)
	module := c.Param("module")

	query := service.ListQuery{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
		SortBy:   c.Query("sort_by"),
		SortDesc: c.Query("sort_desc") == "true",
		Filters:  map[string]any{},
	}
	c.QueryArgs().VisitAll(func(key, value []byte) {
		if name, ok := strings.CutPrefix(string(key), "filter."); ok && name != "" {
			query.Filters[name] = string(value)
		}
	})

	page, err := h.svc.ListEntities(ctx, tc, module, query)
	if err != nil {
		respondError(c, tc.TenantID, "record", "list", err)
		return
	}
	respondOK(c, tc.TenantID, "record", "list", page)
}

type executeQueryRequest struct {
	Module  string `json:"module"`
	Options struct {
		Filters  map[string]any `json:"filters"`
		Page     int            `json:"page"`
		PageSize int            `json:"pageSize"`
		SortBy   string         `json:"sortBy"`
		SortDesc bool           `json:"sortDesc"`
	} `json:"options"`
}

// ExecuteQuery is the POST-body variant of ListRecords for clients
// whose filters do not fit query parameters.
func (h *DataHandler) ExecuteQuery(ctx context.Context, c *app.RequestContext) {
	tc := tenantFrom(ctx)

	var req executeQueryRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		respondError(c, tc.TenantID, "record", "query", service.ErrValidation)
		return
	}
	if req.Module == "" {
		respondError(c, tc.TenantID, "record", "query", service.ErrValidation)
		return
	}

	query := service.ListQuery{
		Page:     req.Options.Page,
		PageSize: req.Options.PageSize,
		Filters:  req.Options.Filters,
		SortBy:   req.Options.SortBy,
		SortDesc: req.Options.SortDesc,
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	page, err := h.svc.ListEntities(ctx, tc, req.Module, query)
	if err != nil {
		respondError(c, tc.TenantID, "record", "query", err)
		return
	}
	respondOK(c, tc.TenantID, "record", "query", page)
}

func queryInt(c *app.RequestContext, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
