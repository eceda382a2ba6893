// Package memory implements an in-process table backend, used for tests and the 'memory' store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

type Memory struct {
	sync.RWMutex
	tables map[string][][]any
}

func NewMemory() *Memory {
	return &Memory{
		tables: map[string][][]any{},
	}
}

func (m *Memory) Lookup(ctx context.Context, name string) (bool, error) {
	m.RLock()
	defer m.RUnlock()

	_, ok := m.tables[store.Key(name)]

	return ok, nil
}

func (m *Memory) Create(ctx context.Context, name string, header []string) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.tables[store.Key(name)]; ok {
		return fmt.Errorf("table '%s' already exists", name)
	}

	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}

	m.tables[store.Key(name)] = [][]any{row}

	return nil
}

func (m *Memory) ClearRows(ctx context.Context, name string) error {
	m.Lock()
	defer m.Unlock()

	rows, ok := m.tables[store.Key(name)]
	if !ok {
		return fmt.Errorf("no table '%s'", name)
	}

	if len(rows) > 1 {
		m.tables[store.Key(name)] = rows[:1]
	}

	return nil
}

func (m *Memory) WriteRows(ctx context.Context, name string, start int, rows [][]any) error {
	m.Lock()
	defer m.Unlock()

	table, ok := m.tables[store.Key(name)]
	if !ok {
		return fmt.Errorf("no table '%s'", name)
	} else if start < 0 {
		return fmt.Errorf("invalid start row %v", start)
	}

	updated := make([][]any, len(table), max(len(table), start+len(rows)))
	copy(updated, table)

	for len(updated) < start+len(rows) {
		updated = append(updated, []any{})
	}

	for i, row := range rows {
		updated[start+i] = append([]any{}, row...)
	}

	m.tables[store.Key(name)] = updated

	return nil
}

// ReplaceRows swaps every row after the header for the rows, under a single lock.
func (m *Memory) ReplaceRows(ctx context.Context, name string, rows [][]any) error {
	m.Lock()
	defer m.Unlock()

	table, ok := m.tables[store.Key(name)]
	if !ok {
		return fmt.Errorf("no table '%s'", name)
	}

	updated := make([][]any, 0, 1+len(rows))
	if len(table) > 0 {
		updated = append(updated, table[0])
	} else {
		updated = append(updated, []any{})
	}

	for _, row := range rows {
		updated = append(updated, append([]any{}, row...))
	}

	m.tables[store.Key(name)] = updated

	return nil
}

func (m *Memory) ReadAll(ctx context.Context, name string) ([][]any, error) {
	m.RLock()
	defer m.RUnlock()

	table, ok := m.tables[store.Key(name)]
	if !ok {
		return nil, fmt.Errorf("no table '%s'", name)
	}

	rows := make([][]any, 0, len(table))
	for _, row := range table {
		rows = append(rows, append([]any{}, row...))
	}

	return rows, nil
}
