package dataset

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "tabstat/internal/errors"
)

// zeroWidth lists invisible characters that spreadsheet exports leave in headers
const zeroWidth = "\u200B\u200C\u200D\u2060\uFEFF"

// Loader reads row files into datasets
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader; a nil logger falls back to slog.Default()
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With("component", "loader")}
}

// Load reads path according to its extension: .csv (comma), .tsv (tab), .txt
// (tab when the header contains one, comma otherwise) or .xlsx (first sheet
// with rows). Delimited files may be gzip-compressed, as in listings.csv.gz.
func (l *Loader) Load(ctx context.Context, path string, schema Schema) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	compressed := ext == ".gz"
	if compressed {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".xlsx", ".xlsm":
		if compressed {
			return nil, apperrors.NewLoadError("compressed workbooks are not supported", nil).
				WithContext("path", path)
		}
		rows, err = readWorkbook(path)
	case ".csv", ".tsv", ".txt":
		rows, err = readDelimitedFile(path, ext, compressed)
	default:
		return nil, apperrors.NewLoadError(fmt.Sprintf("unsupported file type %q", ext), nil).
			WithContext("path", path)
	}
	if err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("failed to read %s", path), err).
			WithContext("path", path)
	}

	ds, err := l.FromRows(ctx, rows, schema)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("path", path),
		slog.Int("records", ds.Len()),
		slog.Int("columns", ds.Columns()))
	return ds, nil
}

// Read parses delimited text from r
func (l *Loader) Read(ctx context.Context, r io.Reader, delimiter rune, schema Schema) (*Dataset, error) {
	rows, err := readDelimited(r, delimiter)
	if err != nil {
		return nil, apperrors.NewLoadError("failed to read delimited input", err)
	}
	return l.FromRows(ctx, rows, schema)
}

// FromRows builds a dataset from raw rows, the first being the header
func (l *Loader) FromRows(ctx context.Context, rows [][]string, schema Schema) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewLoadError("input has no header row", nil)
	}

	header := make([]string, len(rows[0]))
	index := make(map[string]int, len(header))
	for i, col := range rows[0] {
		header[i] = NormalizeHeader(col)
		// First occurrence wins on duplicate names
		if _, dup := index[header[i]]; !dup {
			index[header[i]] = i
		}
	}

	var missing []string
	present := make([]Field, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if _, ok := index[f.Name]; ok {
			present = append(present, f)
		} else if f.Required {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewLoadError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("missing", missing)
	}

	numeric := make(map[string]int)
	for _, f := range present {
		if f.Kind == Numeric {
			numeric[f.Name] = index[f.Name]
		}
	}

	ds := New(NewSchema(present...), nil, header)
	ds.records = make([]Record, 0, len(rows)-1)

	for i, row := range rows[1:] {
		rowNum := i + 2
		rec := Record{row: rowNum, text: make(map[string]string, len(header)), num: make(map[string]float64, len(numeric))}

		for col, name := range header {
			v := ""
			if col < len(row) {
				v = strings.TrimSpace(row[col])
			}
			if v == "" {
				// Short rows are padded with missing cells
				ds.missingCells++
				continue
			}
			if index[name] == col {
				rec.text[name] = v
			}
		}

		for name := range numeric {
			v, ok := rec.text[name]
			if !ok {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				ds.parseFailures[name]++
				l.logger.DebugContext(ctx, "Unparsable numeric cell",
					slog.String("error", apperrors.NewParseError(name, rowNum, v, err).Error()))
				continue
			}
			rec.num[name] = f
		}

		ds.records = append(ds.records, rec)
	}

	for field, n := range ds.parseFailures {
		l.logger.WarnContext(ctx, "Numeric cells could not be parsed",
			slog.String("field", field),
			slog.Int("count", n))
	}

	return ds, nil
}

// NormalizeHeader strips the UTF-8 BOM, zero-width characters and surrounding
// whitespace from a column name.
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(zeroWidth, r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

func readDelimitedFile(path, ext string, compressed bool) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if compressed {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	br := bufio.NewReader(r)
	delimiter := ','
	switch ext {
	case ".tsv":
		delimiter = '\t'
	case ".txt":
		first, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, err
		}
		line, _, _ := strings.Cut(string(first), "\n")
		if strings.Contains(line, "\t") {
			delimiter = '\t'
		}
	}
	return readDelimited(br, delimiter)
}

func readDelimited(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// readWorkbook returns the rows of the first sheet that has any
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}
