package engine

import (
	"github.com/Konsultn-Engineering/morph/database"
	"github.com/Konsultn-Engineering/morph/schema"
)

// collectRows drains a cursor into ordered rows, keys in SELECT-list
// order as the composite assembler requires.
func collectRows(rows database.Rows) ([]*schema.Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []*schema.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := schema.NewRow()
		for i, col := range columns {
			row.Set(col, values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
