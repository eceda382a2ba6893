package store

import (
	"context"
)

// Backend is the row storage underlying a TableStore. Row positions are zero based and the header
// occupies position 0.
//
// Table names are matched on Key(name) i.e. ignoring case and leading/trailing spaces, which is
// how Google Sheets matches worksheet titles.
type Backend interface {
	// Lookup returns true if a table with the name exists.
	Lookup(ctx context.Context, name string) (bool, error)

	// Create adds a new table and writes the header as its first row.
	Create(ctx context.Context, name string, header []string) error

	// ClearRows removes every row after the header.
	ClearRows(ctx context.Context, name string) error

	// WriteRows writes the rows starting at position 'start', overwriting anything already there.
	WriteRows(ctx context.Context, name string, start int, rows [][]any) error

	// ReadAll returns every row of the table, header included.
	ReadAll(ctx context.Context, name string) ([][]any, error)
}

// Replacer is implemented by backends that can discard the rows after the header and write the
// replacement rows as a single transaction. Backends without it are cleared and then written, so
// a failed write leaves the table empty.
type Replacer interface {
	ReplaceRows(ctx context.Context, name string, rows [][]any) error
}
