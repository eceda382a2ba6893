package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/uhppoted/uhppoted-app-forms/logging"
)

const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCreated   = "created"
	StatusExists    = "exists"
	StatusNotExists = "not_exists"
	StatusNoSheet   = "no_sheet"
	StatusNoData    = "no_data"
)

type EnsureResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ExistsResult struct {
	Status  string `json:"status"`
	Exists  bool   `json:"exists"`
	Message string `json:"message"`
}

type WriteResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type ReadResult[T Row | Record] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []T    `json:"data"`
}

// Service exposes the TableStore operations as remote procedures. Every error is reported in the
// returned result rather than returned to the caller.
type Service struct {
	tables *TableStore
}

func NewService(tables *TableStore) *Service {
	return &Service{
		tables: tables,
	}
}

func (s *Service) EnsureTable(ctx context.Context, name string, header Header) EnsureResult {
	created, err := s.tables.EnsureTable(ctx, name, header)
	if err != nil {
		warn(ctx, "ensure-table", name, err)
		return EnsureResult{Status: StatusError, Message: message(name, err)}
	}

	if created {
		logging.FromContext(ctx).Info("created table", "table", name, "columns", len(header))
		return EnsureResult{Status: StatusCreated, Message: fmt.Sprintf("'%s' created", name)}
	}

	return EnsureResult{Status: StatusExists, Message: fmt.Sprintf("'%s' already exists", name)}
}

func (s *Service) Exists(ctx context.Context, name string) ExistsResult {
	exists, err := s.tables.Exists(ctx, name)
	if err != nil {
		warn(ctx, "exists", name, err)
		return ExistsResult{Status: StatusError, Message: message(name, err)}
	}

	if exists {
		return ExistsResult{Status: StatusExists, Exists: true, Message: fmt.Sprintf("'%s' exists", name)}
	}

	return ExistsResult{Status: StatusNotExists, Exists: false, Message: fmt.Sprintf("'%s' does not exist", name)}
}

func (s *Service) ReplaceRows(ctx context.Context, name string, rows []Row) WriteResult {
	N, err := s.tables.ReplaceRows(ctx, name, rows)
	if err != nil {
		warn(ctx, "replace-rows", name, err)
		return WriteResult{Status: StatusError, Message: message(name, err)}
	}

	logging.FromContext(ctx).Debug("replaced rows", "table", name, "rows", N)

	return WriteResult{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("saved %v rows to '%s'", N, name),
		Count:   N,
	}
}

func (s *Service) AppendRows(ctx context.Context, name string, header Header, rows []Row) WriteResult {
	N, err := s.tables.AppendRows(ctx, name, header, rows)
	if err != nil {
		warn(ctx, "append-rows", name, err)
		return WriteResult{Status: StatusError, Message: message(name, err)}
	}

	logging.FromContext(ctx).Debug("appended rows", "table", name, "rows", N)

	return WriteResult{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("appended %v rows to '%s'", N, name),
		Count:   N,
	}
}

func (s *Service) ReadRaw(ctx context.Context, name string) ReadResult[Row] {
	rows, err := s.tables.ReadRaw(ctx, name)

	return read(ctx, name, rows, err)
}

func (s *Service) ReadAsRecords(ctx context.Context, name string) ReadResult[Record] {
	records, err := s.tables.ReadAsRecords(ctx, name)

	return read(ctx, name, records, err)
}

func read[T Row | Record](ctx context.Context, name string, data []T, err error) ReadResult[T] {
	switch {
	case errors.Is(err, ErrTableNotFound):
		logging.FromContext(ctx).Debug("table not found", "table", name)
		return ReadResult[T]{Status: StatusNoSheet, Message: fmt.Sprintf("'%s' not found", name), Data: []T{}}

	case err != nil:
		warn(ctx, "read", name, err)
		return ReadResult[T]{Status: StatusError, Message: message(name, err), Data: []T{}}

	case len(data) == 0:
		return ReadResult[T]{Status: StatusNoData, Message: fmt.Sprintf("no data in '%s'", name), Data: []T{}}

	default:
		logging.FromContext(ctx).Debug("read table", "table", name, "rows", len(data))
		return ReadResult[T]{Status: StatusSuccess, Message: fmt.Sprintf("loaded '%s'", name), Data: data}
	}
}

func message(name string, err error) string {
	switch {
	case errors.Is(err, ErrInvalidName):
		return fmt.Sprintf("invalid table name '%v'", name)

	case errors.Is(err, ErrTableNotFound):
		return fmt.Sprintf("'%s' not found - create the table before saving to it", name)

	default:
		return err.Error()
	}
}

func warn(ctx context.Context, op string, name string, err error) {
	logging.FromContext(ctx).Warn(op, "table", name, "error", err)
}
