package report

import (
	"bufio"
	"io"
)

// Width is the length of banner and section rules
const Width = 80

// Render writes the document to w, one line per block line
func Render(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for _, b := range doc.Blocks {
		for _, line := range b.lines() {
			if _, err := bw.WriteString(line); err != nil {
				return err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
