package store

import (
	"fmt"
	"strings"
	"time"
)

type Header []string

// Row is an ordered tuple of cells. Cells are strings, booleans, integers, floats, time.Time or nil
// for a blank cell.
type Row []any

type Record map[string]any

func (h Header) row() Row {
	row := make(Row, 0, len(h))
	for _, v := range h {
		row = append(row, v)
	}

	return row
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: '%v'", ErrInvalidName, name)
	}

	return nil
}

func validateHeader(header Header) error {
	if len(header) == 0 {
		return fmt.Errorf("%w: missing header", ErrInvalidRow)
	}

	columns := map[string]bool{}
	for i, h := range header {
		k := normalise(h)
		if k == "" {
			return fmt.Errorf("%w: blank column name at position %d", ErrInvalidRow, i+1)
		}

		if columns[k] {
			return fmt.Errorf("%w: duplicate column name '%s'", ErrInvalidRow, h)
		}

		columns[k] = true
	}

	return nil
}

func nonEmpty(rows []Row) error {
	if len(rows) == 0 {
		return ErrEmptyInput
	}

	for i, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("%w: row %d has no cells", ErrEmptyInput, i+1)
		}
	}

	return nil
}

func validateRows(rows []Row, width int) error {
	if err := nonEmpty(rows); err != nil {
		return err
	}

	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidRow, i+1, len(row), width)
		}

		// blank rows can't be told apart from unused rows when reading back
		if isEmpty(row) {
			return fmt.Errorf("%w: row %d is blank", ErrInvalidRow, i+1)
		}

		for j, cell := range row {
			if !isScalar(cell) {
				return fmt.Errorf("%w: row %d, column %d has unsupported value %T", ErrInvalidRow, i+1, j+1, cell)
			}
		}
	}

	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, time.Time:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32, float64:
		return true
	default:
		return false
	}
}

// headerOf extracts the column names from the first stored row.
func headerOf(rows [][]any) Header {
	if len(rows) == 0 {
		return nil
	}

	header := Header{}
	for _, v := range rows[0] {
		header = append(header, clean(fmt.Sprintf("%v", blank(v))))
	}

	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	return header
}

func sameHeader(p, q Header) bool {
	if len(p) != len(q) {
		return false
	}

	for i := range p {
		if clean(p[i]) != clean(q[i]) {
			return false
		}
	}

	return true
}

// pad fits ragged rows read back from storage to the table width, extending short rows with blank
// cells.
func pad(rows [][]any, width int) []Row {
	list := make([]Row, 0, len(rows))
	for _, r := range rows {
		row := make(Row, 0, width)
		row = append(row, r[:min(len(r), width)]...)
		for len(row) < width {
			row = append(row, "")
		}

		list = append(list, row)
	}

	return list
}

func isEmpty(row []any) bool {
	for _, v := range row {
		if s := fmt.Sprintf("%v", blank(v)); strings.TrimSpace(s) != "" {
			return false
		}
	}

	return true
}

func blank(v any) any {
	if v == nil {
		return ""
	}

	return v
}

// Key returns the form of a table name that backends match on, so that 'Assets' and ' assets '
// refer to the same table.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}
