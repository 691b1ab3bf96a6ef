package dataset

import "maps"

// Dataset is an ordered, read-only sequence of records sharing a schema
type Dataset struct {
	schema        Schema
	records       []Record
	header        []string
	parseFailures map[string]int
	missingCells  int
}

// New builds a dataset. header lists the source columns; nil means the schema names.
func New(schema Schema, records []Record, header []string) *Dataset {
	if header == nil {
		header = schema.Names()
	}
	return &Dataset{
		schema:        schema,
		records:       append([]Record(nil), records...),
		header:        append([]string(nil), header...),
		parseFailures: map[string]int{},
	}
}

// Schema returns the dataset schema
func (d *Dataset) Schema() Schema {
	return d.schema
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Record returns the i-th record
func (d *Dataset) Record(i int) Record {
	return d.records[i]
}

// Records returns the records in order. The slice must not be modified.
func (d *Dataset) Records() []Record {
	return d.records
}

// Header returns the normalised source column names
func (d *Dataset) Header() []string {
	return append([]string(nil), d.header...)
}

// Columns returns the number of source columns
func (d *Dataset) Columns() int {
	return len(d.header)
}

// Has reports whether field is a source column or a declared field. Optional
// schema fields absent from the source are not declared after loading.
func (d *Dataset) Has(field string) bool {
	for _, h := range d.header {
		if h == field {
			return true
		}
	}
	_, ok := d.schema.Field(field)
	return ok
}

// ParseFailures returns the number of unparsable numeric cells per field
func (d *Dataset) ParseFailures() map[string]int {
	return maps.Clone(d.parseFailures)
}

// MissingCells returns the number of empty cells across all source columns
func (d *Dataset) MissingCells() int {
	return d.missingCells
}

// Numbers returns the non-missing numeric values of field in record order
func (d *Dataset) Numbers(field string) []float64 {
	values := make([]float64, 0, len(d.records))
	for _, r := range d.records {
		if v, ok := r.Number(field); ok {
			values = append(values, v)
		}
	}
	return values
}

// WithRecords returns a dataset with the same schema and source metadata but
// different records. Filtering uses it.
func (d *Dataset) WithRecords(records []Record) *Dataset {
	out := New(d.schema, records, d.header)
	out.parseFailures = maps.Clone(d.parseFailures)
	out.missingCells = d.missingCells
	return out
}

// Derive maps every record through fn and extends the schema with fields.
func (d *Dataset) Derive(fn func(Record) Record, fields ...Field) *Dataset {
	records := make([]Record, len(d.records))
	for i, r := range d.records {
		records[i] = fn(r)
	}
	return d.WithRecords(records).WithFields(fields...)
}

// WithFields returns a dataset whose schema also declares fields
func (d *Dataset) WithFields(fields ...Field) *Dataset {
	out := d.WithRecords(d.records)
	out.schema = d.schema.With(fields...)
	return out
}
