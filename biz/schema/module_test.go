package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/smallbiznis/valora/biz/schema"
)

const salesOrderSchema = `{
	"tenantId": "acme",
	"module": "SalesOrder",
	"version": 2,
	"isPublished": true,
	"objectType": "document",
	"fields": {
		"customer": {"type": "lookup", "lookupModule": "Customer", "required": true},
		"lines": {"type": "grid", "columns": {
			"qty": {"type": "number", "min": 0},
			"price": {"type": "number"}
		}},
		"notes": {"type": "text", "maxLength": 500, "placeholder": "optional"}
	},
	"calculationRules": {
		"complexCalculation": true,
		"lineRules": [
			{"target": "amount", "source": "lines", "formula": {"*": [{"var": "qty"}, {"var": "price"}]}}
		]
	},
	"documentTotals": [
		{"name": "grandTotal", "field": "lines", "column": "amount", "op": "sum"}
	],
	"attachmentConfig": {"enabled": true, "maxSizeBytes": 1048576},
	"workflowHints": {"autoSubmit": false}
}`

func parseTestSchema(t *testing.T) *schema.ModuleSchema {
	t.Helper()
	var doc schema.VersionDocument
	if err := json.Unmarshal([]byte(salesOrderSchema), &doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	ms, err := schema.ParseModuleSchema(doc)
	if err != nil {
		t.Fatalf("parse module schema: %v", err)
	}
	return ms
}

func TestParseModuleSchemaKnownSections(t *testing.T) {
	ms := parseTestSchema(t)

	if ms.Module != "SalesOrder" || ms.Version != 2 || !ms.IsPublished {
		t.Fatalf("header mismatch: %+v", ms)
	}
	customer, ok := ms.Fields["customer"]
	if !ok || customer.Type != schema.FieldLookup || customer.LookupModule != "Customer" {
		t.Fatalf("customer field decoded wrong: %+v", customer)
	}
	lines := ms.Fields["lines"]
	if lines.Type != schema.FieldGrid || len(lines.Columns) != 2 {
		t.Fatalf("grid columns decoded wrong: %+v", lines)
	}
	if qty := lines.Columns["qty"]; qty.Min == nil || *qty.Min != 0 {
		t.Fatalf("nested column min lost: %+v", qty)
	}
	if !ms.SupportsCalculation() {
		t.Fatalf("complexCalculation flag should enable the engine")
	}
	if !ms.SupportsTotals() {
		t.Fatalf("documentTotals should be reported")
	}
	if ms.AttachmentConfig == nil || !ms.AttachmentConfig.Enabled {
		t.Fatalf("attachment config lost: %+v", ms.AttachmentConfig)
	}
}

func TestParseModuleSchemaKeepsExtensions(t *testing.T) {
	ms := parseTestSchema(t)

	if _, ok := ms.Extensions["workflowHints"]; !ok {
		t.Fatalf("unknown top-level key not preserved: %v", ms.Extensions)
	}
	if _, ok := ms.Extensions["fields"]; ok {
		t.Fatalf("known key leaked into extensions")
	}
}

func TestFieldRuleExtraRoundTrip(t *testing.T) {
	ms := parseTestSchema(t)

	notes := ms.Fields["notes"]
	if len(notes.Extra) != 2 {
		t.Fatalf("expected 2 extra keys on notes, got %v", notes.Extra)
	}

	raw, err := json.Marshal(notes)
	if err != nil {
		t.Fatalf("marshal field rule: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode marshaled rule: %v", err)
	}
	if decoded["maxLength"] != float64(500) || decoded["placeholder"] != "optional" {
		t.Fatalf("extras dropped on marshal: %v", decoded)
	}
	if decoded["type"] != schema.FieldText {
		t.Fatalf("known key dropped on marshal: %v", decoded)
	}
}

func TestSupportsCalculationGuards(t *testing.T) {
	var nilSchema *schema.ModuleSchema
	if nilSchema.SupportsCalculation() || nilSchema.SupportsTotals() {
		t.Fatalf("nil schema must not support anything")
	}

	ms := &schema.ModuleSchema{CalculationRules: &schema.CalculationRules{}}
	if ms.SupportsCalculation() {
		t.Fatalf("engine must stay off without complexCalculation")
	}
}
