package google

import (
	"fmt"
	"strings"

	"spendlens/internal/core"
)

// columns is the header row of the mirror sheet, in order.
var columns = []string{
	"date",
	"person",
	"store",
	"total",
	"category",
	"sub_category",
	"amount",
	"expense_id",
	"created_at",
}

// lastColumn is the sheet column letter of the last header.
var lastColumn = string(rune('A' + len(columns) - 1))

// parseRows converts a values matrix whose first row is the header into
// records. Columns are located by header name so reordered sheets still
// parse. Blank rows are skipped.
func parseRows(values [][]interface{}) ([]core.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	idx := make([]int, len(columns))
	var missing []string
	for i, name := range columns {
		idx[i] = indexOf(headers, name)
		if idx[i] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected sheet header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]core.Record, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		get := func(col int) string { return safeGet(row, idx[col]) }
		rec := core.Record{
			Date:        get(0),
			Person:      get(1),
			Store:       get(2),
			Total:       get(3),
			Category:    get(4),
			SubCategory: get(5),
			Amount:      get(6),
			ExpenseID:   get(7),
			CreatedAt:   get(8),
		}
		if rec == (core.Record{}) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// buildRows renders records under the header row.
func buildRows(recs []core.Record) [][]interface{} {
	rows := make([][]interface{}, 0, len(recs)+1)
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	rows = append(rows, header)
	for _, r := range recs {
		rows = append(rows, []interface{}{
			r.Date, r.Person, r.Store, r.Total, r.Category,
			r.SubCategory, r.Amount, r.ExpenseID, r.CreatedAt,
		})
	}
	return rows
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
