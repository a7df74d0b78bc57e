package models

// Record is a single row of a Batch: a mapping from field name to a scalar
// value (string, int64, float64, bool, time.Time or nil).
type Record map[string]interface{}

// Clone returns a shallow copy of the record. Values are scalars, so a
// shallow copy is enough to keep the original untouched.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Batch is an ordered collection of uniformly shaped records. It is the unit
// of work between pipeline stages. A Batch is treated as immutable once
// built: every transformation produces a new Batch, so earlier stage outputs
// stay inspectable.
type Batch struct {
	columns []string
	records []Record
}

// NewBatch builds a Batch from a column order and a record slice. Records
// missing one of the columns are filled with nil so that every record in the
// Batch exposes the same field set.
func NewBatch(columns []string, records []Record) *Batch {
	cols := make([]string, len(columns))
	copy(cols, columns)

	rows := make([]Record, 0, len(records))
	for _, rec := range records {
		row := make(Record, len(cols))
		for _, col := range cols {
			row[col] = rec[col]
		}
		rows = append(rows, row)
	}
	return &Batch{columns: cols, records: rows}
}

// EmptyBatch returns a Batch with no columns and no records.
func EmptyBatch() *Batch {
	return &Batch{}
}

// Len returns the number of records.
func (b *Batch) Len() int {
	return len(b.records)
}

// Columns returns the column names in order.
func (b *Batch) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}

// HasColumn reports whether the Batch schema contains the given column.
func (b *Batch) HasColumn(name string) bool {
	for _, col := range b.columns {
		if col == name {
			return true
		}
	}
	return false
}

// Record returns the record at index i.
func (b *Batch) Record(i int) Record {
	return b.records[i]
}

// Records returns the record slice. The slice header is copied; callers must
// not mutate the records themselves and should Clone before changing values.
func (b *Batch) Records() []Record {
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Equal reports whether two batches have the same columns in the same order
// and record-for-record equal values.
func (b *Batch) Equal(other *Batch) bool {
	if len(b.columns) != len(other.columns) || len(b.records) != len(other.records) {
		return false
	}
	for i, col := range b.columns {
		if other.columns[i] != col {
			return false
		}
	}
	for i, rec := range b.records {
		for _, col := range b.columns {
			if rec[col] != other.records[i][col] {
				return false
			}
		}
	}
	return true
}
