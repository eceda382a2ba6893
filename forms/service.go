package forms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uhppoted/uhppoted-app-forms/logging"
	"github.com/uhppoted/uhppoted-app-forms/store"
)

// Service saves and loads form data through the table service. Replace mode forms overwrite the
// stored rows on every save, append mode forms accumulate them.
type Service struct {
	sync.RWMutex
	forms  Forms
	tables *store.Service
	now    func() time.Time
}

func NewService(forms Forms, tables *store.Service) *Service {
	return &Service{
		forms:  forms,
		tables: tables,
		now:    time.Now,
	}
}

func (s *Service) Forms() Forms {
	s.RLock()
	defer s.RUnlock()

	return s.forms
}

// Reload replaces the form definitions. Tables created for the previous definitions are left as is.
func (s *Service) Reload(forms Forms) {
	s.Lock()
	defer s.Unlock()

	s.forms = forms
}

func (s *Service) Find(id string) (Form, bool) {
	s.RLock()
	defer s.RUnlock()

	return s.forms.Find(id)
}

func (s *Service) Save(ctx context.Context, id string, rows []store.Row) store.WriteResult {
	form, ok := s.Find(id)
	if !ok {
		return store.WriteResult{Status: store.StatusError, Message: fmt.Sprintf("unknown form '%s'", id)}
	}

	if form.Mode == Append {
		return s.tables.AppendRows(ctx, form.Table, form.Header, rows)
	}

	if result := s.tables.EnsureTable(ctx, form.Table, form.Header); result.Status == store.StatusError {
		return store.WriteResult{Status: store.StatusError, Message: result.Message}
	}

	return s.tables.ReplaceRows(ctx, form.Table, rows)
}

func (s *Service) Load(ctx context.Context, id string) store.ReadResult[store.Row] {
	form, ok := s.Find(id)
	if !ok {
		return store.ReadResult[store.Row]{
			Status:  store.StatusError,
			Message: fmt.Sprintf("unknown form '%s'", id),
			Data:    []store.Row{},
		}
	}

	return s.tables.ReadRaw(ctx, form.Table)
}

// Submit appends the items of a completed checklist to a checklist form's table.
func (s *Service) Submit(ctx context.Context, id string, submission Submission) store.WriteResult {
	form, ok := s.Find(id)
	if !ok {
		return store.WriteResult{Status: store.StatusError, Message: fmt.Sprintf("unknown form '%s'", id)}
	} else if !form.Checklist {
		return store.WriteResult{Status: store.StatusError, Message: fmt.Sprintf("'%s' is not a checklist form", id)}
	}

	if err := submission.Validate(); err != nil {
		return store.WriteResult{Status: store.StatusError, Message: err.Error()}
	}

	rows := submission.Rows(s.now())
	logging.FromContext(ctx).Info("checklist submitted", "form", id, "title", submission.DocumentTitle, "items", len(rows))

	return s.tables.AppendRows(ctx, form.Table, form.Header, rows)
}
