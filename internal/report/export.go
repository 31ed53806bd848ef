package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExportGroupText flattens one group into a tab-separated table suitable
// for copying outside the view. Pure formatting: no network, no state.
func ExportGroupText(g Group, resolver InstanceResolver) string {
	var b strings.Builder

	b.WriteString("severity\tid\tentity\texpected\tobserved\tmessage\n")
	for _, rec := range g.Records {
		guid, typ := resolver.Resolve(rec.InstanceID)
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Severity.Label(),
			guid,
			typ,
			formatValue(rec.Expected),
			formatValue(rec.Observed),
			rec.Message,
		)
	}
	return b.String()
}

// formatValue renders a display payload: scalars as-is, nested
// descriptors as compact JSON
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
