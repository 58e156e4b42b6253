package options

import (
	"bufio"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Usage writes one line per registered option in ascending tag order.
// Parameter labels are padded to a common width on a best-effort basis.
func Usage(w io.Writer, reg *Registry) error {
	entries := reg.Entries()

	largest := 0
	for _, entry := range entries {
		if !entry.TakesValue() {
			continue
		}
		if width := text.StringWidthWithoutEscSequences(entry.Param); width > largest {
			largest = width
		}
	}
	if largest > 0 {
		// room for the angle brackets
		largest += 2
	}

	out := bufio.NewWriter(w)
	out.WriteString("Usage:\n")
	for _, entry := range entries {
		out.WriteString(" -")
		out.WriteByte(entry.Tag)
		out.WriteByte(' ')
		if largest > 0 {
			label := ""
			if entry.TakesValue() {
				label = "<" + entry.Param + ">"
			}
			out.WriteString(text.Pad(label, largest, ' '))
			out.WriteByte(' ')
		}
		out.WriteString(entry.Details)
		out.WriteByte('\n')
	}
	return out.Flush()
}
