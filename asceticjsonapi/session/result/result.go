// Package result carries the outcome of a statement that returns no rows.
package result

// Affected reports how many rows a statement changed.
type Affected int64

func NewResult(rowsAffected int64) Affected {
	return Affected(rowsAffected)
}

func (r Affected) RowsAffected() (int64, error) {
	return int64(r), nil
}
