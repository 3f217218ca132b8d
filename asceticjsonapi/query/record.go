package query

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session"
)

// Record is one row keyed by column name.
type Record map[string]any

func (r Record) keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ScanRecords drains rows into records. It does not close rows.
func ScanRecords(rows session.Rows) ([]Record, error) {
	columns := rows.Columns()
	records := []Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "unable to scan row")
		}
		record := make(Record, len(columns))
		for i, column := range columns {
			record[column] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read rows")
	}
	return records, nil
}
