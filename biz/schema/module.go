package schema

import (
	"encoding/json"
	"fmt"
)

// Field rule types understood by the form renderer and the entity store.
const (
	FieldText    = "text"
	FieldNumber  = "number"
	FieldDate    = "date"
	FieldBoolean = "boolean"
	FieldSelect  = "select"
	FieldLookup  = "lookup"
	FieldGrid    = "grid"
)

// ModuleSchema is the typed view of one version document. Known
// sections decode into concrete types; unknown top-level keys are kept
// in Extensions so forward-compatible schemas survive a round-trip
// through the studio.
type ModuleSchema struct {
	TenantID          string
	Module            string
	Version           int
	ObjectType        string
	IsPublished       bool
	Fields            map[string]FieldRule
	CalculationRules  *CalculationRules
	DocumentTotals    []TotalRule
	AttachmentConfig  *AttachmentConfig
	CloudStorage      *CloudStorageConfig
	UniqueConstraints [][]string
	UI                map[string]any
	Extensions        map[string]json.RawMessage
}

// FieldRule describes one schema field. Type selects which of the
// optional sections apply; Extra keeps unrecognized keys.
type FieldRule struct {
	Type         string               `json:"type"`
	Label        string               `json:"label,omitempty"`
	Required     bool                 `json:"required,omitempty"`
	ReadOnly     bool                 `json:"readOnly,omitempty"`
	Options      []string             `json:"options,omitempty"`
	LookupModule string               `json:"lookupModule,omitempty"`
	Columns      map[string]FieldRule `json:"columns,omitempty"`
	Min          *float64             `json:"min,omitempty"`
	Max          *float64             `json:"max,omitempty"`
	Pattern      string               `json:"pattern,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// CalculationRules declares server-side formulas. The engine runs only
// when ComplexCalculation is set.
type CalculationRules struct {
	ComplexCalculation bool       `json:"complexCalculation"`
	LineRules          []CalcRule `json:"lineRules,omitempty"`
	DocumentRules      []CalcRule `json:"documentRules,omitempty"`
}

// CalcRule binds a formula tree to a target field. Line rules carry the
// source array field whose rows they run over.
type CalcRule struct {
	Target  string         `json:"target"`
	Source  string         `json:"source,omitempty"`
	When    map[string]any `json:"when,omitempty"`
	Formula map[string]any `json:"formula"`
}

// TotalRule aggregates a column over an array field into a document
// total. Op is one of sum, avg, min, max, count.
type TotalRule struct {
	Name   string `json:"name"`
	Field  string `json:"field"`
	Column string `json:"column,omitempty"`
	Op     string `json:"op"`
}

// AttachmentConfig controls file uploads for the object.
type AttachmentConfig struct {
	Enabled      bool     `json:"enabled"`
	MaxSizeBytes int64    `json:"maxSizeBytes,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
}

// CloudStorageConfig routes attachments to a specific storage backend.
type CloudStorageConfig struct {
	Provider string `json:"provider,omitempty"`
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
}

// moduleSchemaKnown mirrors the known wire keys of a version document.
type moduleSchemaKnown struct {
	TenantID          string               `json:"tenantId"`
	Module            string               `json:"module"`
	Version           int                  `json:"version"`
	ObjectType        string               `json:"objectType"`
	IsPublished       bool                 `json:"isPublished"`
	Fields            map[string]FieldRule `json:"fields"`
	CalculationRules  *CalculationRules    `json:"calculationRules"`
	DocumentTotals    []TotalRule          `json:"documentTotals"`
	AttachmentConfig  *AttachmentConfig    `json:"attachmentConfig"`
	CloudStorage      *CloudStorageConfig  `json:"cloudStorage"`
	UniqueConstraints [][]string           `json:"uniqueConstraints"`
	UI                map[string]any       `json:"ui"`
}

var moduleSchemaKeys = map[string]bool{
	"tenantId": true, "module": true, "version": true, "objectType": true,
	"isPublished": true, "fields": true, "calculationRules": true,
	"documentTotals": true, "attachmentConfig": true, "cloudStorage": true,
	"uniqueConstraints": true, "ui": true,
}

// ParseModuleSchema converts a raw version document into its typed view.
func ParseModuleSchema(doc VersionDocument) (*ModuleSchema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode module schema: %w", err)
	}

	var known moduleSchemaKnown
	if err := json.Unmarshal(raw, &known); err != nil {
		return nil, fmt.Errorf("decode module schema: %w", err)
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode module schema: %w", err)
	}
	var extensions map[string]json.RawMessage
	for key, value := range all {
		if moduleSchemaKeys[key] {
			continue
		}
		if extensions == nil {
			extensions = make(map[string]json.RawMessage)
		}
		extensions[key] = value
	}

	return &ModuleSchema{
		TenantID:          known.TenantID,
		Module:            known.Module,
		Version:           known.Version,
		ObjectType:        known.ObjectType,
		IsPublished:       known.IsPublished,
		Fields:            known.Fields,
		CalculationRules:  known.CalculationRules,
		DocumentTotals:    known.DocumentTotals,
		AttachmentConfig:  known.AttachmentConfig,
		CloudStorage:      known.CloudStorage,
		UniqueConstraints: known.UniqueConstraints,
		UI:                known.UI,
		Extensions:        extensions,
	}, nil
}

// SupportsCalculation reports whether the engine should run for this
// schema variant.
func (m *ModuleSchema) SupportsCalculation() bool {
	return m != nil && m.CalculationRules != nil && m.CalculationRules.ComplexCalculation
}

// SupportsTotals reports whether the schema variant exposes document
// totals.
func (m *ModuleSchema) SupportsTotals() bool {
	return m != nil && len(m.DocumentTotals) > 0
}

// fieldRuleAlias avoids recursion in FieldRule.UnmarshalJSON.
type fieldRuleAlias FieldRule

var fieldRuleKeys = map[string]bool{
	"type": true, "label": true, "required": true, "readOnly": true,
	"options": true, "lookupModule": true, "columns": true,
	"min": true, "max": true, "pattern": true,
}

// UnmarshalJSON decodes known rule keys and stashes the rest in Extra.
func (f *FieldRule) UnmarshalJSON(data []byte) error {
	var alias fieldRuleAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for key, value := range all {
		if fieldRuleKeys[key] {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]json.RawMessage)
		}
		alias.Extra[key] = value
	}

	*f = FieldRule(alias)
	return nil
}

// MarshalJSON re-emits known keys alongside any preserved extras.
func (f FieldRule) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(fieldRuleAlias(f))
	if err != nil {
		return nil, err
	}
	if len(f.Extra) == 0 {
		return raw, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for key, value := range f.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
