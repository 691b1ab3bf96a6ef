package dataset

import "maps"

// Record is one row. Text holds the trimmed cell values by field name; numeric
// fields additionally carry their parsed value. A field with no entry is
// missing.
type Record struct {
	row  int
	text map[string]string
	num  map[string]float64
}

// NewRecord builds a record from text and numeric values. The maps are copied;
// empty text values are treated as missing.
func NewRecord(row int, text map[string]string, num map[string]float64) Record {
	r := Record{row: row, text: make(map[string]string, len(text)), num: maps.Clone(num)}
	for k, v := range text {
		if v != "" {
			r.text[k] = v
		}
	}
	if r.num == nil {
		r.num = map[string]float64{}
	}
	return r
}

// Row returns the source row number (the header is row 1), zero for synthetic records.
func (r Record) Row() int {
	return r.row
}

// Text returns the text value of field
func (r Record) Text(field string) (string, bool) {
	v, ok := r.text[field]
	return v, ok
}

// Number returns the parsed numeric value of field
func (r Record) Number(field string) (float64, bool) {
	v, ok := r.num[field]
	return v, ok
}

// Missing reports whether field has neither a text nor a numeric value
func (r Record) Missing(field string) bool {
	_, hasText := r.text[field]
	_, hasNum := r.num[field]
	return !hasText && !hasNum
}

// WithNumber returns a copy of the record with a numeric field set
func (r Record) WithNumber(field string, v float64) Record {
	out := r.clone()
	out.num[field] = v
	return out
}

// WithText returns a copy of the record with a text field set; an empty value
// makes the field missing.
func (r Record) WithText(field, v string) Record {
	out := r.clone()
	if v == "" {
		delete(out.text, field)
	} else {
		out.text[field] = v
	}
	return out
}

func (r Record) clone() Record {
	return Record{row: r.row, text: maps.Clone(r.text), num: maps.Clone(r.num)}
}
