package calc_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/smallbiznis/valora/biz/calc"
	"github.com/smallbiznis/valora/biz/schema"
)

func salesOrderSchema() *schema.ModuleSchema {
	return &schema.ModuleSchema{
		Module: "SalesOrder",
		CalculationRules: &schema.CalculationRules{
			ComplexCalculation: true,
			LineRules: []schema.CalcRule{
				{
					Target: "amount",
					Source: "lines",
					Formula: map[string]any{
						"*": []any{map[string]any{"var": "qty"}, map[string]any{"var": "price"}},
					},
				},
			},
			DocumentRules: []schema.CalcRule{
				{
					Target: "temp_discount",
					Formula: map[string]any{
						"*": []any{map[string]any{"var": "subtotal"}, 0.1},
					},
				},
			},
		},
		DocumentTotals: []schema.TotalRule{
			{Name: "grandTotal", Field: "lines", Column: "amount", Op: "sum"},
			{Name: "lineCount", Field: "lines", Op: "count"},
		},
	}
}

func TestExecuteLineRules(t *testing.T) {
	formData := map[string]any{
		"subtotal": 100.0,
		"lines": []any{
			map[string]any{"qty": 2.0, "price": 10.0},
			map[string]any{"qty": 3.0, "price": 5.0},
		},
	}

	result, err := calc.Execute(salesOrderSchema(), "lines", formData, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	rows, ok := result.CalculatedValues["lines"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 calculated rows, got %v", result.CalculatedValues["lines"])
	}
	if a := rows[0].(map[string]any)["amount"]; a != 20.0 {
		t.Fatalf("row 0 amount = %v, want 20", a)
	}
	if a := rows[1].(map[string]any)["amount"]; a != 15.0 {
		t.Fatalf("row 1 amount = %v, want 15", a)
	}

	// input rows must not be mutated
	if _, ok := formData["lines"].([]any)[0].(map[string]any)["amount"]; ok {
		t.Fatalf("engine mutated the submitted form data")
	}
}

func TestExecuteDocumentRuleStagesTempTarget(t *testing.T) {
	formData := map[string]any{"subtotal": 200.0, "lines": []any{}}

	result, err := calc.Execute(salesOrderSchema(), "", formData, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := result.TempValues["temp_discount"]; got != 20.0 {
		t.Fatalf("temp_discount = %v, want 20", got)
	}
	if _, ok := result.CalculatedValues["temp_discount"]; ok {
		t.Fatalf("temp_ target must not land in calculated values")
	}
}

func TestExecuteTotals(t *testing.T) {
	formData := map[string]any{
		"subtotal": 0.0,
		"lines": []any{
			map[string]any{"qty": 2.0, "price": 10.0},
			map[string]any{"qty": 1.0, "price": 30.0},
		},
	}

	result, err := calc.Execute(salesOrderSchema(), "", formData, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// totals read the calculated rows, so amount exists
	if got := result.DocumentTotals["grandTotal"]; got != 50.0 {
		t.Fatalf("grandTotal = %v, want 50", got)
	}
	if got := result.DocumentTotals["lineCount"]; got != 2.0 {
		t.Fatalf("lineCount = %v, want 2", got)
	}
}

func TestExecuteWhenGate(t *testing.T) {
	ms := &schema.ModuleSchema{
		CalculationRules: &schema.CalculationRules{
			ComplexCalculation: true,
			LineRules: []schema.CalcRule{
				{
					Target:  "amount",
					Source:  "lines",
					When:    map[string]any{">": []any{map[string]any{"var": "qty"}, 0}},
					Formula: map[string]any{"*": []any{map[string]any{"var": "qty"}, map[string]any{"var": "price"}}},
				},
			},
		},
	}
	formData := map[string]any{
		"lines": []any{
			map[string]any{"qty": 0.0, "price": 10.0},
			map[string]any{"qty": 4.0, "price": 10.0},
		},
	}

	result, err := calc.Execute(ms, "", formData, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	rows := result.CalculatedValues["lines"].([]any)
	if _, ok := rows[0].(map[string]any)["amount"]; ok {
		t.Fatalf("gated row should pass through untouched")
	}
	if a := rows[1].(map[string]any)["amount"]; a != 40.0 {
		t.Fatalf("ungated row amount = %v, want 40", a)
	}
}

func TestExecuteDivisionByZero(t *testing.T) {
	ms := &schema.ModuleSchema{
		CalculationRules: &schema.CalculationRules{
			ComplexCalculation: true,
			DocumentRules: []schema.CalcRule{
				{
					Target:  "ratio",
					Formula: map[string]any{"/": []any{10, map[string]any{"var": "divisor"}}},
				},
			},
		},
	}

	_, err := calc.Execute(ms, "", map[string]any{"divisor": 0.0}, nil)
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division by zero error, got %v", err)
	}
}

func TestExecuteUnknownOperator(t *testing.T) {
	ms := &schema.ModuleSchema{
		CalculationRules: &schema.CalculationRules{
			ComplexCalculation: true,
			DocumentRules: []schema.CalcRule{
				{Target: "x", Formula: map[string]any{"pow": []any{2, 8}}},
			},
		},
	}

	if _, err := calc.Execute(ms, "", map[string]any{}, nil); err == nil {
		t.Fatalf("expected unknown operator error")
	}
}

func TestExecuteOperators(t *testing.T) {
	cases := []struct {
		name    string
		formula map[string]any
		want    any
	}{
		{"add", map[string]any{"+": []any{1, 2, 3}}, 6.0},
		{"subtract", map[string]any{"-": []any{10, 4}}, 6.0},
		{"min", map[string]any{"min": []any{5, 2, 9}}, 2.0},
		{"max", map[string]any{"max": []any{5, 2, 9}}, 9.0},
		{"round", map[string]any{"round": []any{2.345, 2}}, 2.35},
		{"if-then", map[string]any{"if": []any{true, "yes", "no"}}, "yes"},
		{"if-else", map[string]any{"if": []any{false, "yes", "no"}}, "no"},
		{"eq-loose", map[string]any{"==": []any{"5", 5}}, true},
		{"neq", map[string]any{"!=": []any{1, 2}}, true},
		{"and-short", map[string]any{"and": []any{true, false}}, false},
		{"or-short", map[string]any{"or": []any{false, true}}, true},
		{"not", map[string]any{"not": []any{true}}, false},
		{"gte", map[string]any{">=": []any{3, 3}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ms := &schema.ModuleSchema{
				CalculationRules: &schema.CalculationRules{
					ComplexCalculation: true,
					DocumentRules:      []schema.CalcRule{{Target: "out", Formula: tc.formula}},
				},
			}
			result, err := calc.Execute(ms, "", map[string]any{}, nil)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if got := result.CalculatedValues["out"]; got != tc.want {
				t.Fatalf("got %v (%T), want %v", got, got, tc.want)
			}
		})
	}
}

func TestVarFallsBackToTempValues(t *testing.T) {
	ms := &schema.ModuleSchema{
		CalculationRules: &schema.CalculationRules{
			ComplexCalculation: true,
			DocumentRules: []schema.CalcRule{
				{Target: "out", Formula: map[string]any{"+": []any{map[string]any{"var": "rate"}, 1}}},
			},
		},
	}

	result, err := calc.Execute(ms, "", map[string]any{}, map[string]any{"temp_rate": 4.0})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := result.CalculatedValues["out"]; got != 5.0 {
		t.Fatalf("out = %v, want 5 (temp_rate should resolve)", got)
	}
}

func TestCommitTempValuesCanonicalWins(t *testing.T) {
	formData := map[string]any{
		"total":      100.0,
		"temp_total": 999.0,
		"temp_note":  "staged",
	}

	committed := calc.CommitTempValues(formData)

	want := map[string]any{"total": 100.0, "note": "staged"}
	if !reflect.DeepEqual(committed, want) {
		t.Fatalf("committed = %v, want %v", committed, want)
	}
}

func TestCommitTempValuesIdempotent(t *testing.T) {
	formData := map[string]any{
		"temp_total": 50.0,
		"qty":        3.0,
	}

	once := calc.CommitTempValues(formData)
	twice := calc.CommitTempValues(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("commit not idempotent: %v vs %v", once, twice)
	}
	if once["total"] != 50.0 {
		t.Fatalf("temp value not promoted: %v", once)
	}
	if _, ok := once["temp_total"]; ok {
		t.Fatalf("temp key survived the commit")
	}
	if formData["qty"] != 3.0 || formData["temp_total"] != 50.0 {
		t.Fatalf("input map mutated")
	}
}

func TestExecuteNoRulesIsNoop(t *testing.T) {
	result, err := calc.Execute(&schema.ModuleSchema{}, "", map[string]any{"a": 1.0}, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.CalculatedValues) != 0 || len(result.DocumentTotals) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
