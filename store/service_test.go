package store_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/uhppoted/uhppoted-app-forms/store"
	"github.com/uhppoted/uhppoted-app-forms/store/memory"
)

type broken struct {
	*memory.Memory
}

func (b broken) WriteRows(ctx context.Context, name string, start int, rows [][]any) error {
	return fmt.Errorf("quota exceeded")
}

// failing replaces rows as a single operation that always fails.
type failing struct {
	*memory.Memory
}

func (f failing) ReplaceRows(ctx context.Context, name string, rows [][]any) error {
	return fmt.Errorf("transaction aborted")
}

func TestServiceEnsureTable(t *testing.T) {
	ctx := context.Background()
	service := store.NewService(store.NewTableStore(memory.NewMemory()))

	if result := service.EnsureTable(ctx, "Assets", header); result.Status != store.StatusCreated {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusCreated, result.Status)
	}

	if result := service.EnsureTable(ctx, "Assets", header); result.Status != store.StatusExists {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusExists, result.Status)
	}

	if result := service.EnsureTable(ctx, "", header); result.Status != store.StatusError {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusError, result.Status)
	}
}

func TestServiceExists(t *testing.T) {
	ctx := context.Background()
	service := store.NewService(store.NewTableStore(memory.NewMemory()))

	expected := store.ExistsResult{Status: store.StatusNotExists, Exists: false, Message: "'Assets' does not exist"}
	if result := service.Exists(ctx, "Assets"); !reflect.DeepEqual(result, expected) {
		t.Errorf("Incorrect result\n   expected: %+v\n   got:      %+v\n", expected, result)
	}

	service.EnsureTable(ctx, "Assets", header)

	expected = store.ExistsResult{Status: store.StatusExists, Exists: true, Message: "'Assets' exists"}
	if result := service.Exists(ctx, "Assets"); !reflect.DeepEqual(result, expected) {
		t.Errorf("Incorrect result\n   expected: %+v\n   got:      %+v\n", expected, result)
	}
}

func TestServiceReplaceRows(t *testing.T) {
	ctx := context.Background()
	service := store.NewService(store.NewTableStore(memory.NewMemory()))

	service.EnsureTable(ctx, "Assets", header)

	expected := store.WriteResult{Status: store.StatusSuccess, Message: "saved 1 rows to 'Assets'", Count: 1}
	if result := service.ReplaceRows(ctx, "Assets", []store.Row{{"A-001", "Server", "IT"}}); !reflect.DeepEqual(result, expected) {
		t.Errorf("Incorrect result\n   expected: %+v\n   got:      %+v\n", expected, result)
	}

	if result := service.ReplaceRows(ctx, "Assets", []store.Row{}); result.Status != store.StatusError {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusError, result.Status)
	}

	if result := service.ReplaceRows(ctx, "Other", []store.Row{{"A-001", "Server", "IT"}}); result.Status != store.StatusError {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusError, result.Status)
	}
}

func TestServiceWithStorageError(t *testing.T) {
	ctx := context.Background()
	service := store.NewService(store.NewTableStore(broken{memory.NewMemory()}))

	service.EnsureTable(ctx, "Assets", header)

	result := service.AppendRows(ctx, "Assets", header, []store.Row{{"A-001", "Server", "IT"}})
	if result.Status != store.StatusError {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusError, result.Status)
	}

	if result.Message == "" {
		t.Errorf("Expected error message, got '%v'", result.Message)
	}
}

func TestServiceReadRaw(t *testing.T) {
	ctx := context.Background()
	service := store.NewService(store.NewTableStore(memory.NewMemory()))

	result := service.ReadRaw(ctx, "Assets")
	if result.Status != store.StatusNoSheet || result.Data == nil || len(result.Data) != 0 {
		t.Errorf("Incorrect result for missing table %+v", result)
	}

	service.EnsureTable(ctx, "Assets", header)

	result = service.ReadRaw(ctx, "Assets")
	if result.Status != store.StatusNoData || len(result.Data) != 0 {
		t.Errorf("Incorrect result for empty table %+v", result)
	}

	service.AppendRows(ctx, "Assets", header, []store.Row{{"A-001", "Server", "IT"}})

	expected := []store.Row{
		{"Asset ID", "Type", "Owner"},
		{"A-001", "Server", "IT"},
	}

	result = service.ReadRaw(ctx, "Assets")
	if result.Status != store.StatusSuccess {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusSuccess, result.Status)
	}

	if !reflect.DeepEqual(result.Data, expected) {
		t.Errorf("Incorrect data\n   expected: %v\n   got:      %v\n", expected, result.Data)
	}
}

func TestServiceReadAsRecords(t *testing.T) {
	ctx := context.Background()
	service := store.NewService(store.NewTableStore(memory.NewMemory()))

	if result := service.ReadAsRecords(ctx, "Assets"); result.Status != store.StatusNoSheet {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusNoSheet, result.Status)
	}

	service.AppendRows(ctx, "Assets", header, []store.Row{{"A-001", "Server", "IT"}})

	expected := []store.Record{
		{"Asset ID": "A-001", "Type": "Server", "Owner": "IT"},
	}

	result := service.ReadAsRecords(ctx, "Assets")
	if result.Status != store.StatusSuccess {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusSuccess, result.Status)
	}

	if !reflect.DeepEqual(result.Data, expected) {
		t.Errorf("Incorrect data\n   expected: %v\n   got:      %v\n", expected, result.Data)
	}
}
