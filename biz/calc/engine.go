// Package calc evaluates schema-declared formulas against submitted
// form data. Formulas are JSON trees of the form {"op": [args...]};
// evaluation is nil-safe and never panics on malformed input.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/smallbiznis/valora/biz/schema"
)

// TempPrefix marks client-side staging values not yet committed to
// their canonical field.
const TempPrefix = "temp_"

// Result is the outcome of one engine run.
type Result struct {
	CalculatedValues map[string]any `json:"calculatedValues"`
	DocumentTotals   map[string]any `json:"documentTotals"`
	TempValues       map[string]any `json:"tempValues"`
}

// Execute runs the schema's line and document rules over the submitted
// form data and computes document totals. changedField is advisory; the
// engine re-evaluates every rule so results are deterministic
// regardless of which field triggered the round-trip.
func Execute(ms *schema.ModuleSchema, changedField string, formData, tempValues map[string]any) (*Result, error) {
	_ = changedField

	result := &Result{
		CalculatedValues: make(map[string]any),
		DocumentTotals:   make(map[string]any),
		TempValues:       make(map[string]any),
	}
	for key, value := range tempValues {
		result.TempValues[key] = value
	}
	if ms == nil || ms.CalculationRules == nil {
		return result, nil
	}

	ev := &evaluator{form: formData, temp: tempValues}

	for _, rule := range ms.CalculationRules.LineRules {
		if rule.Source == "" || rule.Target == "" {
			continue
		}
		rows, ok := rowsOf(formData[rule.Source])
		if !ok {
			continue
		}
		out := make([]any, 0, len(rows))
		for i, row := range rows {
			ev.row = row
			if rule.When != nil {
				cond, err := ev.eval(rule.When)
				if err != nil {
					return nil, fmt.Errorf("rule %s row %d: %w", rule.Target, i, err)
				}
				if !isTruthy(cond) {
					out = append(out, row)
					continue
				}
			}
			value, err := ev.eval(rule.Formula)
			if err != nil {
				return nil, fmt.Errorf("rule %s row %d: %w", rule.Target, i, err)
			}
			updated := make(map[string]any, len(row)+1)
			for k, v := range row {
				updated[k] = v
			}
			updated[rule.Target] = value
			out = append(out, updated)
		}
		ev.row = nil
		result.CalculatedValues[rule.Source] = out
	}

	for _, rule := range ms.CalculationRules.DocumentRules {
		if rule.Target == "" {
			continue
		}
		if rule.When != nil {
			cond, err := ev.eval(rule.When)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", rule.Target, err)
			}
			if !isTruthy(cond) {
				continue
			}
		}
		value, err := ev.eval(rule.Formula)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Target, err)
		}
		if strings.HasPrefix(rule.Target, TempPrefix) {
			result.TempValues[rule.Target] = value
		} else {
			result.CalculatedValues[rule.Target] = value
		}
	}

	if ms.SupportsTotals() {
		for _, total := range ms.DocumentTotals {
			value, err := aggregate(total, formData, result.CalculatedValues)
			if err != nil {
				return nil, fmt.Errorf("total %s: %w", total.Name, err)
			}
			result.DocumentTotals[total.Name] = value
		}
	}

	return result, nil
}

// CommitTempValues promotes staged temp_<field> values into their
// canonical fields. Canonical values win when already present; every
// temp key is dropped. The merge is pure and idempotent.
func CommitTempValues(formData map[string]any) map[string]any {
	out := make(map[string]any, len(formData))
	for key, value := range formData {
		if strings.HasPrefix(key, TempPrefix) {
			continue
		}
		out[key] = value
	}
	for key, value := range formData {
		if !strings.HasPrefix(key, TempPrefix) {
			continue
		}
		canonical := strings.TrimPrefix(key, TempPrefix)
		if canonical == "" {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = value
		}
	}
	return out
}

type evaluator struct {
	form map[string]any
	temp map[string]any
	row  map[string]any
}

// eval walks a formula node. Maps with a single recognised operator key
// are operator applications; anything else is a literal.
func (e *evaluator) eval(node any) (any, error) {
	m, ok := node.(map[string]any)
	if !ok || len(m) != 1 {
		return node, nil
	}
	for op, args := range m {
		return e.apply(op, args)
	}
	return node, nil
}

func (e *evaluator) apply(op string, args any) (any, error) {
	switch op {
	case "var":
		path, ok := args.(string)
		if !ok {
			return nil, fmt.Errorf("var expects a field name")
		}
		return e.lookup(path), nil

	case "+", "-", "*", "/", "min", "max":
		values, err := e.numericArgs(args)
		if err != nil {
			return nil, err
		}
		return applyNumeric(op, values)

	case "round":
		values, err := e.numericArgs(args)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("round expects a value")
		}
		decimals := 0.0
		if len(values) > 1 {
			decimals = values[1]
		}
		factor := math.Pow(10, decimals)
		return math.Round(values[0]*factor) / factor, nil

	case "==", "!=":
		a, b, err := e.pair(args)
		if err != nil {
			return nil, err
		}
		eq := looseEqual(a, b)
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil

	case ">", "<", ">=", "<=":
		a, b, err := e.pair(args)
		if err != nil {
			return nil, err
		}
		x, okX := toNumber(a)
		y, okY := toNumber(b)
		if !okX || !okY {
			return false, nil
		}
		switch op {
		case ">":
			return x > y, nil
		case "<":
			return x < y, nil
		case ">=":
			return x >= y, nil
		default:
			return x <= y, nil
		}

	case "and", "or":
		list, ok := args.([]any)
		if !ok {
			return nil, fmt.Errorf("%s expects a list", op)
		}
		for _, item := range list {
			v, err := e.eval(item)
			if err != nil {
				return nil, err
			}
			if op == "and" && !isTruthy(v) {
				return false, nil
			}
			if op == "or" && isTruthy(v) {
				return true, nil
			}
		}
		return op == "and", nil

	case "not", "!":
		v, err := e.eval(first(args))
		if err != nil {
			return nil, err
		}
		return !isTruthy(v), nil

	case "if":
		list, ok := args.([]any)
		if !ok || len(list) < 2 {
			return nil, fmt.Errorf("if expects [condition, then, else]")
		}
		cond, err := e.eval(list[0])
		if err != nil {
			return nil, err
		}
		if isTruthy(cond) {
			return e.eval(list[1])
		}
		if len(list) > 2 {
			return e.eval(list[2])
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
}

// lookup resolves a field reference: current row first, then canonical
// form data, then the staged temp value.
func (e *evaluator) lookup(name string) any {
	if e.row != nil {
		if v, ok := e.row[name]; ok {
			return v
		}
	}
	if v, ok := e.form[name]; ok && v != nil {
		return v
	}
	if v, ok := e.temp[TempPrefix+name]; ok {
		return v
	}
	if v, ok := e.temp[name]; ok {
		return v
	}
	if v, ok := e.form[TempPrefix+name]; ok {
		return v
	}
	return nil
}

func (e *evaluator) numericArgs(args any) ([]float64, error) {
	list, ok := args.([]any)
	if !ok {
		list = []any{args}
	}
	values := make([]float64, 0, len(list))
	for _, item := range list {
		v, err := e.eval(item)
		if err != nil {
			return nil, err
		}
		n, _ := toNumber(v)
		values = append(values, n)
	}
	return values, nil
}

func (e *evaluator) pair(args any) (any, any, error) {
	list, ok := args.([]any)
	if !ok || len(list) != 2 {
		return nil, nil, fmt.Errorf("comparison expects two arguments")
	}
	a, err := e.eval(list[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := e.eval(list[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func applyNumeric(op string, values []float64) (any, error) {
	if len(values) == 0 {
		return 0.0, nil
	}
	acc := values[0]
	for _, v := range values[1:] {
		switch op {
		case "+":
			acc += v
		case "-":
			acc -= v
		case "*":
			acc *= v
		case "/":
			if v == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			acc /= v
		case "min":
			acc = math.Min(acc, v)
		case "max":
			acc = math.Max(acc, v)
		}
	}
	return acc, nil
}

func first(args any) any {
	if list, ok := args.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return args
}

// toNumber coerces JSON-decoded values to float64. nil and
// non-numeric strings coerce to 0 with ok=false.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		n, ok := toNumber(v)
		return ok && n != 0
	}
}

func looseEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if x, ok := toNumber(a); ok {
		if y, okY := toNumber(b); okY {
			return x == y
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func rowsOf(v any) ([]map[string]any, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, row)
	}
	return rows, true
}
