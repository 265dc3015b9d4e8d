package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/valora/biz/calc"
	"github.com/smallbiznis/valora/biz/schema"
	"github.com/smallbiznis/valora/pkg/common"
)

// CalculationInput is the payload for one calculation run. Module is
// an accepted alias for ObjectCode.
type CalculationInput struct {
	ObjectCode   string         `json:"objectCode"`
	Module       string         `json:"module"`
	ChangedField string         `json:"changedField"`
	FormData     map[string]any `json:"formData"`
	TempValues   map[string]any `json:"tempValues,omitempty"`
}

// CalculationOutput is the wire shape of a calculation result.
type CalculationOutput struct {
	ObjectCode       string         `json:"objectCode"`
	SchemaVersion    int            `json:"schemaVersion"`
	CalculatedValues map[string]any `json:"calculatedValues"`
	DocumentTotals   map[string]any `json:"documentTotals,omitempty"`
	TempValues       map[string]any `json:"tempValues,omitempty"`
}

// resolveCalculationSchema prefers the published version of the object
// and falls back to the latest draft so formulas can be exercised
// before going live.
func (s *Service) resolveCalculationSchema(ctx context.Context, tc common.TenantContext, env, objectCode string) (*schema.ModuleSchema, int, error) {
	_, doc, err := s.logic.loadTemplate(ctx, tc.TenantID)
	if err != nil {
		return nil, 0, err
	}
	res, err := schema.Published(doc, env, objectCode)
	if errors.Is(err, schema.ErrNotFound) {
		res, err = schema.Latest(doc, env, objectCode)
	}
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return nil, 0, fmt.Errorf("%s/%s: %w", env, objectCode, ErrSchemaNotFound)
		}
		return nil, 0, err
	}
	ms, err := schema.ParseModuleSchema(res.Document)
	if err != nil {
		return nil, 0, fmt.Errorf("%s/%s: %w: %v", env, objectCode, ErrSchemaNotFound, err)
	}
	return ms, res.Version, nil
}

// Calculate runs the object's calculation rules against the submitted
// form data.
func (s *Service) Calculate(ctx context.Context, tc common.TenantContext, input CalculationInput) (*CalculationOutput, error) {
	env, err := resolveEnv(tc)
	if err != nil {
		return nil, err
	}
	if input.ObjectCode == "" {
		input.ObjectCode = input.Module
	}
	if input.ObjectCode == "" {
		return nil, validationf("object code is required")
	}
	if input.FormData == nil {
		input.FormData = map[string]any{}
	}

	ms, version, err := s.resolveCalculationSchema(ctx, tc, env, input.ObjectCode)
	if err != nil {
		return nil, err
	}
	if !ms.SupportsCalculation() {
		return nil, validationf("object %s does not support calculation", input.ObjectCode)
	}

	result, err := calc.Execute(ms, input.ChangedField, input.FormData, input.TempValues)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalculation, err)
	}
	return &CalculationOutput{
		ObjectCode:       input.ObjectCode,
		SchemaVersion:    version,
		CalculatedValues: result.CalculatedValues,
		DocumentTotals:   result.DocumentTotals,
		TempValues:       result.TempValues,
	}, nil
}

// CommitTempValues promotes temp_-prefixed staging values in the form
// data to their canonical fields. Canonical values already present win.
func (s *Service) CommitTempValues(ctx context.Context, tc common.TenantContext, formData map[string]any) (map[string]any, error) {
	if _, err := resolveEnv(tc); err != nil {
		return nil, err
	}
	if formData == nil {
		return map[string]any{}, nil
	}
	return calc.CommitTempValues(formData), nil
}
