package forms

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

// MakeTSV writes a table (header first) as tab separated values.
func MakeTSV(f io.Writer, rows []store.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("empty table")
	}

	if len(rows[0]) == 0 {
		return fmt.Errorf("missing/invalid header row")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = format(v)
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// ParseTSV reads a header and data rows from tab separated values. Every record must have the
// same number of fields as the header.
func ParseTSV(f io.Reader) (store.Header, []store.Row, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("TSV file is empty")
	}

	header := store.Header{}
	for _, v := range records[0] {
		header = append(header, clean(v))
	}

	rows := []store.Row{}
	for _, record := range records[1:] {
		row := make(store.Row, len(record))
		for i, v := range record {
			row[i] = v
		}

		rows = append(rows, row)
	}

	return header, rows, nil
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""

	case time.Time:
		return t.Format("2006-01-02 15:04:05")

	default:
		return clean(fmt.Sprintf("%v", v))
	}
}
