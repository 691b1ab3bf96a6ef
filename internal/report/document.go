package report

import (
	"fmt"
	"strings"
)

// Block is one renderable part of a document
type Block interface {
	lines() []string
}

// Document is an ordered list of blocks
type Document struct {
	Blocks []Block
}

// New starts a document with a title banner
func New(title string) *Document {
	d := &Document{}
	d.Banner(title)
	return d
}

// Add appends blocks
func (d *Document) Add(blocks ...Block) *Document {
	d.Blocks = append(d.Blocks, blocks...)
	return d
}

// Banner adds a title between two double rules
func (d *Document) Banner(title string) *Document {
	return d.Add(banner(title))
}

// Heading adds a blank line, the title and a single rule
func (d *Document) Heading(title string) *Document {
	return d.Add(heading(title))
}

// Linef adds one formatted line
func (d *Document) Linef(format string, args ...any) *Document {
	return d.Add(Lines{fmt.Sprintf(format, args...)})
}

// Blank adds an empty line
func (d *Document) Blank() *Document {
	return d.Add(Lines{""})
}

// Text adds a multi-line block verbatim
func (d *Document) Text(text string) *Document {
	return d.Add(Lines(strings.Split(text, "\n")))
}

// Table adds a table
func (d *Document) Table(t *Table) *Document {
	return d.Add(t)
}

// Lines is a block of literal lines
type Lines []string

func (l Lines) lines() []string {
	return l
}

type banner string

func (b banner) lines() []string {
	rule := strings.Repeat("=", Width)
	return []string{rule, string(b), rule}
}

type heading string

func (h heading) lines() []string {
	return []string{"", string(h), strings.Repeat("-", Width)}
}

// Artifact is a file the run tried to write
type Artifact struct {
	Name string
	Err  error
}

// Artifacts lists saved and failed files
type Artifacts []Artifact

func (a Artifacts) lines() []string {
	out := make([]string, 0, len(a))
	for _, art := range a {
		if art.Err != nil {
			out = append(out, fmt.Sprintf("✗ Failed: %s (%v)", art.Name, art.Err))
			continue
		}
		out = append(out, "✓ Saved: "+art.Name)
	}
	return out
}

// Pick returns the artifacts named name
func Pick(all []Artifact, name string) Artifacts {
	var out Artifacts
	for _, art := range all {
		if art.Name == name {
			out = append(out, art)
		}
	}
	return out
}
