package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"tabstat/internal/dataset"
	apperrors "tabstat/internal/errors"
	"tabstat/internal/stats"
)

// maxReportedParseErrors bounds CleanReport.ParseErrors
const maxReportedParseErrors = 20

// ParseRule turns a text value into a number
type ParseRule func(string) (float64, error)

// CurrencyRule parses values such as "$1,250.00": whitespace is trimmed and
// "$" and "," removed before parsing.
func CurrencyRule(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

// IndicatorRule maps the positive label to 1 and the negative label to 0.
// Labels match exactly after trimming; any other value fails.
func IndicatorRule(positive, negative string) ParseRule {
	return func(s string) (float64, error) {
		s = strings.TrimSpace(s)
		switch s {
		case positive:
			return 1, nil
		case negative:
			return 0, nil
		default:
			return 0, fmt.Errorf("expected %q or %q", positive, negative)
		}
	}
}

// Derivation parses Source into the numeric field Target
type Derivation struct {
	Source string
	Target string
	Rule   ParseRule
}

// CleanerConfig configures a Cleaner
type CleanerConfig struct {
	Derivations []Derivation

	// TrimField, when set, is trimmed to the [LowerPercentile, UpperPercentile] band
	TrimField       string
	LowerPercentile float64
	UpperPercentile float64
	Method          stats.PercentileMethod

	// MaxParseFailureRatio is the share of records whose derivation may fail
	// before Clean returns a CLEANING error
	MaxParseFailureRatio float64
}

// CleanReport accounts for every record Clean removed
type CleanReport struct {
	Input int
	// Unparsable records had a source value the rule rejected
	Unparsable int
	// Missing records had no source value or no value for the trim field
	Missing int
	// Trimmed records fell outside the percentile band
	Trimmed  int
	Retained int

	// Band bounds, NaN when no trimming happened
	Lower float64
	Upper float64

	// ParseErrors holds the first failures
	ParseErrors []*apperrors.ParseError
}

// Dropped returns the number of removed records
func (r CleanReport) Dropped() int {
	return r.Unparsable + r.Missing + r.Trimmed
}

// Cleaner derives numeric fields and removes records that fail or are outliers
type Cleaner struct {
	logger *slog.Logger
	cfg    CleanerConfig
}

// NewCleaner creates a cleaner; a nil logger falls back to slog.Default()
func NewCleaner(logger *slog.Logger, cfg CleanerConfig) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With("component", "cleaner"), cfg: cfg}
}

// Clean returns a new dataset. It never adds records and is deterministic for
// a given input.
func (c *Cleaner) Clean(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, CleanReport, error) {
	report := CleanReport{Input: ds.Len(), Lower: math.NaN(), Upper: math.NaN()}

	fields := make([]dataset.Field, 0, len(c.cfg.Derivations))
	for _, d := range c.cfg.Derivations {
		fields = append(fields, dataset.Field{Name: d.Target, Kind: dataset.Numeric})
	}

	kept := make([]dataset.Record, 0, ds.Len())
	for _, rec := range ds.Records() {
		derived, ok := c.derive(ctx, rec, &report)
		if ok {
			kept = append(kept, derived)
		}
	}

	if report.Input > 0 {
		ratio := float64(report.Unparsable) / float64(report.Input)
		if ratio > c.cfg.MaxParseFailureRatio {
			return nil, report, apperrors.NewCleaningError(
				fmt.Sprintf("%d of %d records failed to parse (%.1f%%)", report.Unparsable, report.Input, ratio*100), nil).
				WithContext("max_ratio", c.cfg.MaxParseFailureRatio)
		}
	}

	if c.cfg.TrimField != "" {
		kept = c.trim(kept, &report)
	}

	report.Retained = len(kept)
	out := ds.WithRecords(kept).WithFields(fields...)

	c.logger.InfoContext(ctx, "Dataset cleaned",
		slog.Int("input", report.Input),
		slog.Int("retained", report.Retained),
		slog.Int("unparsable", report.Unparsable),
		slog.Int("missing", report.Missing),
		slog.Int("trimmed", report.Trimmed))

	return out, report, nil
}

func (c *Cleaner) derive(ctx context.Context, rec dataset.Record, report *CleanReport) (dataset.Record, bool) {
	for _, d := range c.cfg.Derivations {
		src, ok := rec.Text(d.Source)
		if !ok {
			report.Missing++
			return rec, false
		}
		v, err := d.Rule(src)
		if err != nil {
			report.Unparsable++
			perr := apperrors.NewParseError(d.Source, rec.Row(), src, err)
			if len(report.ParseErrors) < maxReportedParseErrors {
				report.ParseErrors = append(report.ParseErrors, perr)
			}
			c.logger.DebugContext(ctx, "Record excluded", slog.String("error", perr.Error()))
			return rec, false
		}
		rec = rec.WithNumber(d.Target, v)
	}
	return rec, true
}

// trim applies the percentile band computed on the values before filtering
func (c *Cleaner) trim(records []dataset.Record, report *CleanReport) []dataset.Record {
	values := make([]float64, 0, len(records))
	withValue := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if v, ok := r.Number(c.cfg.TrimField); ok {
			values = append(values, v)
			withValue = append(withValue, r)
		} else {
			report.Missing++
		}
	}
	if len(values) == 0 {
		return withValue
	}

	report.Lower = stats.Quantile(values, c.cfg.LowerPercentile, c.cfg.Method)
	report.Upper = stats.Quantile(values, c.cfg.UpperPercentile, c.cfg.Method)

	kept := make([]dataset.Record, 0, len(withValue))
	for i, r := range withValue {
		if values[i] >= report.Lower && values[i] <= report.Upper {
			kept = append(kept, r)
		} else {
			report.Trimmed++
		}
	}
	return kept
}
