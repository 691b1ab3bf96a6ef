package dataset

// Kind classifies how a field's values are interpreted
type Kind int

const (
	// Text fields are kept verbatim and never aggregated
	Text Kind = iota
	// Categorical fields are grouping keys
	Categorical
	// Numeric fields are parsed as float64 on load
	Numeric
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "text"
	}
}

// Field describes one column of a dataset
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema is an ordered list of fields
type Schema struct {
	Fields []Field
}

// NewSchema builds a schema from fields in order
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: append([]Field(nil), fields...)}
}

// Field looks a field up by name
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Required returns the names of the required fields
func (s Schema) Required() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// With returns a copy of the schema with fields appended or, when a name
// already exists, replaced in place.
func (s Schema) With(fields ...Field) Schema {
	out := NewSchema(s.Fields...)
	for _, f := range fields {
		replaced := false
		for i := range out.Fields {
			if out.Fields[i].Name == f.Name {
				out.Fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}
