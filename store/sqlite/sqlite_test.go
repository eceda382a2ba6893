package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

func setup(t *testing.T) *SQLite {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "forms.db"))
	if err != nil {
		t.Fatalf("Unexpected error opening database (%v)", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	db := setup(t)

	if exists, err := db.Lookup(ctx, "Assets"); err != nil {
		t.Fatalf("Unexpected error returned from Lookup (%v)", err)
	} else if exists {
		t.Errorf("Expected 'Assets' not to exist")
	}

	if err := db.Create(ctx, "Assets", []string{"Asset ID", "Type"}); err != nil {
		t.Fatalf("Unexpected error returned from Create (%v)", err)
	}

	if err := db.Create(ctx, "Assets", []string{"Asset ID", "Type"}); err == nil {
		t.Errorf("Expected error creating duplicate table")
	}

	expected := [][]any{{"Asset ID", "Type"}}
	if rows, err := db.ReadAll(ctx, "Assets"); err != nil {
		t.Fatalf("Unexpected error returned from ReadAll (%v)", err)
	} else if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}
}

func TestTableStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	tables := store.NewTableStore(setup(t))
	header := store.Header{"Risk ID", "Asset", "Score"}

	if _, err := tables.ReplaceRows(ctx, "Risks", []store.Row{{"R-01", "Server", 9}}); !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("Expected ErrTableNotFound, got %v", err)
	}

	if _, err := tables.EnsureTable(ctx, "Risks", header); err != nil {
		t.Fatalf("Unexpected error returned from EnsureTable (%v)", err)
	}

	if _, err := tables.AppendRows(ctx, "Risks", header, []store.Row{{"R-01", "Server", 9}, {"R-02", "Laptop", 4}}); err != nil {
		t.Fatalf("Unexpected error returned from AppendRows (%v)", err)
	}

	if _, err := tables.AppendRows(ctx, "Risks", header, []store.Row{{"R-03", "Router", 6}}); err != nil {
		t.Fatalf("Unexpected error returned from AppendRows (%v)", err)
	}

	expected := []store.Row{
		{"Risk ID", "Asset", "Score"},
		{"R-01", "Server", 9.0},
		{"R-02", "Laptop", 4.0},
		{"R-03", "Router", 6.0},
	}

	rows, err := tables.ReadRaw(ctx, "Risks")
	if err != nil {
		t.Fatalf("Unexpected error returned from ReadRaw (%v)", err)
	} else if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}

	if _, err := tables.ReplaceRows(ctx, "Risks", rows[1:2]); err != nil {
		t.Fatalf("Unexpected error returned from ReplaceRows (%v)", err)
	}

	expected = []store.Row{
		{"Risk ID", "Asset", "Score"},
		{"R-01", "Server", 9.0},
	}

	if rows, err := tables.ReadRaw(ctx, "Risks"); err != nil {
		t.Fatalf("Unexpected error returned from ReadRaw (%v)", err)
	} else if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}
}

func TestReplaceRowsRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setup(t)

	if err := db.Create(ctx, "Assets", []string{"Asset ID", "Type"}); err != nil {
		t.Fatalf("Unexpected error returned from Create (%v)", err)
	}

	if err := db.ReplaceRows(ctx, "Assets", [][]any{{"A-001", "Server"}, {"A-002", "Laptop"}}); err != nil {
		t.Fatalf("Unexpected error returned from ReplaceRows (%v)", err)
	}

	// ... second row can't be encoded, after the delete and the first insert
	if err := db.ReplaceRows(ctx, "Assets", [][]any{{"A-003", "Router"}, {"A-004", make(chan int)}}); err == nil {
		t.Errorf("Expected error replacing rows with unencodable value")
	}

	expected := [][]any{
		{"Asset ID", "Type"},
		{"A-001", "Server"},
		{"A-002", "Laptop"},
	}

	if rows, err := db.ReadAll(ctx, "Assets"); err != nil {
		t.Fatalf("Unexpected error returned from ReadAll (%v)", err)
	} else if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}
}

func TestTableNames(t *testing.T) {
	ctx := context.Background()
	db := setup(t)

	if err := db.Create(ctx, "Assets", []string{"Asset ID"}); err != nil {
		t.Fatalf("Unexpected error returned from Create (%v)", err)
	}

	for _, name := range []string{"assets", " ASSETS "} {
		if exists, err := db.Lookup(ctx, name); err != nil {
			t.Fatalf("Unexpected error returned from Lookup (%v)", err)
		} else if !exists {
			t.Errorf("Expected '%v' to match 'Assets'", name)
		}
	}

	if err := db.Create(ctx, "assets ", []string{"Asset ID"}); err == nil {
		t.Errorf("Expected error creating table 'assets ' alongside 'Assets'")
	}
}
