package common

import (
	"context"
	"strings"
)

// Error codes carried in response envelopes. Clients branch on these,
// not on HTTP status alone.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeSchemaNotFound = "SCHEMA_NOT_FOUND"
	CodeCalculation    = "CALCULATION_ERROR"
	CodeUnexpected     = "UNEXPECTED"
)

// ErrorDetail is a single error entry in a response envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success  bool          `json:"success"`
	TenantID string        `json:"tenantId"`
	Resource string        `json:"resource"`
	Action   string        `json:"action"`
	Data     any           `json:"data,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// OK builds a success envelope.
func OK(tenantID, resource, action string, data any) Envelope {
	return Envelope{
		Success:  true,
		TenantID: tenantID,
		Resource: resource,
		Action:   action,
		Data:     data,
	}
}

// Fail builds a failure envelope with a single error entry.
func Fail(tenantID, resource, action, code, message string) Envelope {
	return Envelope{
		TenantID: tenantID,
		Resource: resource,
		Action:   action,
		Errors:   []ErrorDetail{{Code: code, Message: message}},
	}
}

// TenantContext carries the caller identity resolved from request headers.
// Resolution itself (authentication, tenant lookup) happens upstream; the
// platform only consumes the result.
type TenantContext struct {
	TenantID    string
	TenantName  string
	Environment string
	Role        string
	UserID      string
}

type contextKey string

const tenantContextKey contextKey = "tenant_context"

// ContextWithTenant stores the tenant context into ctx.
func ContextWithTenant(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}

// GetTenant retrieves the tenant context from ctx.
func GetTenant(ctx context.Context) (TenantContext, bool) {
	v := ctx.Value(tenantContextKey)
	if v == nil {
		return TenantContext{}, false
	}
	tc, ok := v.(TenantContext)
	if !ok || strings.TrimSpace(tc.TenantID) == "" {
		return TenantContext{}, false
	}
	return tc, true
}
