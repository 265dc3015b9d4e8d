package calc

import (
	"fmt"
	"math"

	"github.com/smallbiznis/valora/biz/schema"
)

// aggregate computes one document total over an array field. Rows
// updated by line rules in the same run take precedence over the
// submitted form data.
func aggregate(total schema.TotalRule, formData, calculated map[string]any) (any, error) {
	source := formData[total.Field]
	if updated, ok := calculated[total.Field]; ok {
		source = updated
	}
	rows, ok := rowsOf(source)
	if !ok {
		// A missing or non-array field aggregates over nothing.
		rows = nil
	}

	column := total.Column
	if column == "" {
		column = total.Name
	}

	if total.Op == "count" {
		return float64(len(rows)), nil
	}

	sum := 0.0
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	counted := 0
	for _, row := range rows {
		n, ok := toNumber(row[column])
		if !ok {
			continue
		}
		sum += n
		minV = math.Min(minV, n)
		maxV = math.Max(maxV, n)
		counted++
	}

	switch total.Op {
	case "sum", "":
		return sum, nil
	case "avg":
		if counted == 0 {
			return 0.0, nil
		}
		return sum / float64(counted), nil
	case "min":
		if counted == 0 {
			return 0.0, nil
		}
		return minV, nil
	case "max":
		if counted == 0 {
			return 0.0, nil
		}
		return maxV, nil
	default:
		return nil, fmt.Errorf("unknown aggregation %q", total.Op)
	}
}
