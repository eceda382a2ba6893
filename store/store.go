package store

import (
	"context"
	"fmt"
	"sync"
)

// TableStore maintains named, header-first tables over a Backend. Writes to the same table from
// within one process are serialized; nothing guards against other processes writing the same
// storage concurrently.
type TableStore struct {
	backend Backend

	guard sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTableStore(backend Backend) *TableStore {
	return &TableStore{
		backend: backend,
		locks:   map[string]*sync.Mutex{},
	}
}

// EnsureTable creates the table with the header if it does not already exist. Returns true if the
// table was created. An existing table must have the same header.
func (s *TableStore) EnsureTable(ctx context.Context, name string, header Header) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	if err := validateHeader(header); err != nil {
		return false, err
	}

	unlock := s.lock(name)
	defer unlock()

	return s.ensure(ctx, name, header)
}

func (s *TableStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	ok, err := s.backend.Lookup(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: lookup '%s' (%v)", ErrStorage, name, err)
	}

	return ok, nil
}

// ReplaceRows discards every row after the header and writes the rows in their place. The table
// must already exist.
func (s *TableStore) ReplaceRows(ctx context.Context, name string, rows []Row) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	if err := nonEmpty(rows); err != nil {
		return 0, err
	}

	unlock := s.lock(name)
	defer unlock()

	header, _, err := s.load(ctx, name)
	if err != nil {
		return 0, err
	} else if len(header) == 0 {
		return 0, fmt.Errorf("%w: '%s' has no header row", ErrHeaderMismatch, name)
	}

	if err := validateRows(rows, len(header)); err != nil {
		return 0, err
	}

	if err := s.replace(ctx, name, values(rows)); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// AppendRows adds the rows after the last existing row, creating the table with the header if
// it does not exist. An empty list of rows is a no-op.
func (s *TableStore) AppendRows(ctx context.Context, name string, header Header, rows []Row) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	if err := validateHeader(header); err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		return 0, nil
	}

	if err := validateRows(rows, len(header)); err != nil {
		return 0, err
	}

	unlock := s.lock(name)
	defer unlock()

	if _, err := s.ensure(ctx, name, header); err != nil {
		return 0, err
	}

	_, all, err := s.load(ctx, name)
	if err != nil {
		return 0, err
	}

	if err := s.backend.WriteRows(ctx, name, last(all), values(rows)); err != nil {
		return 0, fmt.Errorf("%w: append to '%s' (%v)", ErrStorage, name, err)
	}

	return len(rows), nil
}

// ReadRaw returns the header followed by the data rows. A table with no data rows returns an
// empty list.
func (s *TableStore) ReadRaw(ctx context.Context, name string) ([]Row, error) {
	header, data, err := s.read(ctx, name)
	if err != nil {
		return nil, err
	} else if len(data) == 0 {
		return []Row{}, nil
	}

	rows := []Row{header.row()}

	return append(rows, data...), nil
}

// ReadAsRecords returns the data rows as records keyed by column name.
func (s *TableStore) ReadAsRecords(ctx context.Context, name string) ([]Record, error) {
	header, data, err := s.read(ctx, name)
	if err != nil {
		return nil, err
	}

	records := []Record{}
	for _, row := range data {
		record := Record{}
		for i, h := range header {
			record[h] = row[i]
		}

		records = append(records, record)
	}

	return records, nil
}

func (s *TableStore) read(ctx context.Context, name string) (Header, []Row, error) {
	if err := validateName(name); err != nil {
		return nil, nil, err
	}

	header, all, err := s.load(ctx, name)
	if err != nil {
		return nil, nil, err
	} else if len(header) == 0 || len(all) <= 1 {
		return header, []Row{}, nil
	}

	return header, pad(all[1:], len(header)), nil
}

func (s *TableStore) ensure(ctx context.Context, name string, header Header) (bool, error) {
	exists, err := s.backend.Lookup(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: lookup '%s' (%v)", ErrStorage, name, err)
	}

	if !exists {
		if err := s.backend.Create(ctx, name, header); err != nil {
			return false, fmt.Errorf("%w: create '%s' (%v)", ErrStorage, name, err)
		}

		return true, nil
	}

	rows, err := s.backend.ReadAll(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: read '%s' (%v)", ErrStorage, name, err)
	}

	// ... created outside this store and never written
	if len(rows) == 0 {
		if err := s.backend.WriteRows(ctx, name, 0, [][]any{header.row()}); err != nil {
			return false, fmt.Errorf("%w: write header to '%s' (%v)", ErrStorage, name, err)
		}

		return false, nil
	}

	if existing := headerOf(rows); !sameHeader(existing, header) {
		return false, fmt.Errorf("%w: '%s' has columns %q, requested %q", ErrHeaderMismatch, name, existing, header)
	}

	return false, nil
}

// load returns the stored header and every stored row (header included) with trailing blank
// rows removed.
func (s *TableStore) load(ctx context.Context, name string) (Header, [][]any, error) {
	exists, err := s.backend.Lookup(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lookup '%s' (%v)", ErrStorage, name, err)
	} else if !exists {
		return nil, nil, fmt.Errorf("%w: '%s'", ErrTableNotFound, name)
	}

	rows, err := s.backend.ReadAll(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read '%s' (%v)", ErrStorage, name, err)
	}

	for len(rows) > 0 && isEmpty(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}

	return headerOf(rows), rows, nil
}

// replace clears and rewrites the data rows in a single transaction if the backend supports it.
func (s *TableStore) replace(ctx context.Context, name string, rows [][]any) error {
	if r, ok := s.backend.(Replacer); ok {
		if err := r.ReplaceRows(ctx, name, rows); err != nil {
			return fmt.Errorf("%w: replace '%s' (%v)", ErrStorage, name, err)
		}

		return nil
	}

	if err := s.backend.ClearRows(ctx, name); err != nil {
		return fmt.Errorf("%w: clear '%s' (%v)", ErrStorage, name, err)
	}

	if err := s.backend.WriteRows(ctx, name, 1, rows); err != nil {
		return fmt.Errorf("%w: write '%s' (%v)", ErrStorage, name, err)
	}

	return nil
}

func (s *TableStore) lock(name string) func() {
	key := Key(name)

	s.guard.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.guard.Unlock()

	l.Lock()

	return l.Unlock
}

func last(rows [][]any) int {
	if len(rows) == 0 {
		return 1
	}

	return len(rows)
}

func values(rows []Row) [][]any {
	list := make([][]any, 0, len(rows))
	for _, row := range rows {
		list = append(list, []any(row))
	}

	return list
}
