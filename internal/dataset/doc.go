// Package dataset holds the in-memory table model shared by the pipeline and
// the reports: a Schema of typed fields, immutable Records and the Dataset
// that groups them, plus a Loader for delimited text and XLSX workbooks.
//
// # Loading
//
// Loader.Load reads the first row as the header. Header names are normalised
// (UTF-8 BOM and zero-width characters removed, surrounding whitespace trimmed)
// before they are matched against the schema. Every required field must be
// present or loading fails with a LOAD error. Columns outside the schema are
// kept as text so that column counts and missing-cell counts describe the whole
// file.
//
// Empty cells are missing. Numeric cells that do not parse are missing too and
// are counted per field in Dataset.ParseFailures.
//
// # Immutability
//
// Records are never modified after loading. Derivations return new Records and
// new Datasets:
//
//	derived := ds.Derive(func(r Record) Record { return r.WithNumber("x2", 2) },
//		Field{Name: "x2", Kind: Numeric})
package dataset
