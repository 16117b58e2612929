package export

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"drgetl/internal/table"
)

// WriteCSV writes t with a header row, comma delimiter and "\n" line endings.
// Floats use shortest round-trip text ("1.0", "1e-05"), nulls are empty and
// bools are True/False. A field is quoted only when it contains the
// delimiter, a quote or a line break, and a row made of one empty field is
// written as "" so it survives a round trip.
//
// With includeIndex the row labels are written first under an empty header.
// The output is byte-stable, which the metadata content hash relies on.
func WriteCSV(w io.Writer, t *table.Table, includeIndex bool) error {
	bw := bufio.NewWriter(w)
	cols := t.Columns()

	rec := make([]string, 0, len(cols)+1)
	if includeIndex {
		rec = append(rec, "")
	}
	rec = append(rec, t.Names()...)
	if err := writeRecord(bw, rec); err != nil {
		return err
	}

	for i := 0; i < t.NumRows(); i++ {
		rec = rec[:0]
		if includeIndex {
			rec = append(rec, strconv.FormatInt(t.Label(i), 10))
		}
		for _, c := range cols {
			rec = append(rec, c.Format(i))
		}
		if err := writeRecord(bw, rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, rec []string) error {
	for i, field := range rec {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if needsQuote(field) || (len(rec) == 1 && field == "") {
			if _, err := w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`); err != nil {
				return err
			}
			continue
		}
		if _, err := w.WriteString(field); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func needsQuote(s string) bool {
	return strings.ContainsAny(s, ",\"\r\n")
}
