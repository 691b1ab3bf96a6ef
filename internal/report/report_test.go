package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"fixed", Fixed(3.14159, 2), "3.14"},
		{"fixed zero decimals", Fixed(2.5, 0), "2"},
		{"fixed nan", Fixed(math.NaN(), 2), NA},
		{"money", Money(1234.5, 2), "$1234.50"},
		{"money inf", Money(math.Inf(1), 2), NA},
		{"percent", Percent(16.1224, 2), "16.12%"},
		{"percent nan", Percent(math.NaN(), 1), NA},
		{"count", Count(1234567), "1,234,567"},
		{"thousands", Thousands(98765.4), "98,765"},
		{"thousands nan", Thousands(math.NaN()), NA},
		{"optional missing", Optional(1, false, func(v float64) string { return Fixed(v, 1) }), NA},
		{"optional present", Optional(1, true, func(v float64) string { return Fixed(v, 1) }), "1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestShare(t *testing.T) {
	assert.Equal(t, 25.0, Share(1, 4))
	assert.True(t, math.IsNaN(Share(1, 0)))
}

func TestRender(t *testing.T) {
	doc := New("MARKET ANALYSIS").
		Heading("1. DATA CLEANING").
		Linef("Original dataset: %d listings, %d features", 4, 7).
		Table(NewTable("Room Type Distribution:", "room_type", "count").
			AddRow("Entire home/apt", "3").
			AddRow("Private room", "12")).
		Blank().
		Text("INSIGHTS:\n1. first")

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, doc))

	rule := strings.Repeat("=", 80)
	want := strings.Join([]string{
		rule,
		"MARKET ANALYSIS",
		rule,
		"",
		"1. DATA CLEANING",
		strings.Repeat("-", 80),
		"Original dataset: 4 listings, 7 features",
		"",
		"Room Type Distribution:",
		"room_type        count",
		"Entire home/apt      3",
		"Private room        12",
		"",
		"INSIGHTS:",
		"1. first",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestTable_EmptyAndWide(t *testing.T) {
	empty := NewTable("Top Neighborhoods:", "neighbourhood", "count")
	assert.Equal(t, []string{"", "Top Neighborhoods:", "neighbourhood  count", "(no rows)"}, empty.lines())

	// Display width, not byte length, drives alignment
	wide := NewTable("", "name", "n").AddRow("Gràcia", "1").AddRow("Sants", "22")
	assert.Equal(t, []string{"name     n", "Gràcia   1", "Sants   22"}, wide.lines())
	assert.Equal(t, 2, wide.Len())
}

func TestArtifacts(t *testing.T) {
	lines := Artifacts{
		{Name: "figure.png"},
		{Name: "heatmap.png", Err: errors.New("disk full")},
	}.lines()
	assert.Equal(t, []string{"✓ Saved: figure.png", "✗ Failed: heatmap.png (disk full)"}, lines)
}

func TestPick(t *testing.T) {
	all := []Artifact{{Name: "a.png"}, {Name: "b.png"}, {Name: "a.png", Err: errors.New("again")}}
	assert.Len(t, Pick(all, "a.png"), 2)
	assert.Empty(t, Pick(all, "c.png"))
}
