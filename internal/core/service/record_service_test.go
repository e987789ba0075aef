package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

type stubRecordStore struct {
	created  []domain.Record
	rejectFn func(domain.Record) bool
	deleted  []int
}

func (s *stubRecordStore) List(context.Context) (domain.Record, error) {
	return domain.Record(`[{"name":"a"}]`), nil
}

func (s *stubRecordStore) Create(_ context.Context, rec domain.Record) (domain.Record, error) {
	if s.rejectFn != nil && s.rejectFn(rec) {
		return nil, &domain.UpstreamError{Status: 400, Op: "create"}
	}
	s.created = append(s.created, rec)
	return rec, nil
}

func (s *stubRecordStore) Update(_ context.Context, _ int, rec domain.Record) (domain.Record, error) {
	return rec, nil
}

func (s *stubRecordStore) Delete(_ context.Context, index int) (domain.Record, error) {
	s.deleted = append(s.deleted, index)
	return domain.Record(`{"deleted":1}`), nil
}

type stubParser struct {
	records []domain.Record
	err     error
}

func (p *stubParser) Parse(string, io.Reader) ([]domain.Record, error) {
	return p.records, p.err
}

// sequentialDispatcher runs prepare and commit inline; the worker pool has
// its own tests.
type sequentialDispatcher struct{}

func (sequentialDispatcher) Dispatch(
	ctx context.Context,
	records []domain.Record,
	prepare func(context.Context, domain.Record) (domain.Record, error),
	commit func(context.Context, domain.Record) error,
) (int, int) {
	ok, failed := 0, 0
	for _, r := range records {
		if prepare != nil {
			var err error
			if r, err = prepare(ctx, r); err != nil {
				failed++
				continue
			}
		}
		if commit(ctx, r) != nil {
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}

func TestRecordService_NoStoreConfigured(t *testing.T) {
	svc := NewRecordService(nil, &stubParser{}, sequentialDispatcher{}, nopLogger())
	ctx := context.Background()

	if _, err := svc.List(ctx); !errors.Is(err, domain.ErrRecordStoreUnavailable) {
		t.Fatalf("List: expected ErrRecordStoreUnavailable, got %v", err)
	}
	if _, err := svc.Delete(ctx, 1); !errors.Is(err, domain.ErrRecordStoreUnavailable) {
		t.Fatalf("Delete: expected ErrRecordStoreUnavailable, got %v", err)
	}
	if _, err := svc.Import(ctx, "x.csv", strings.NewReader("")); !errors.Is(err, domain.ErrRecordStoreUnavailable) {
		t.Fatalf("Import: expected ErrRecordStoreUnavailable, got %v", err)
	}
}

func TestRecordService_PassThrough(t *testing.T) {
	store := &stubRecordStore{}
	svc := NewRecordService(store, &stubParser{}, sequentialDispatcher{}, nopLogger())
	ctx := context.Background()

	got, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if string(got) != `[{"name":"a"}]` {
		t.Fatalf("unexpected body %s", got)
	}

	if _, err := svc.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 3 {
		t.Fatalf("unexpected deletes: %v", store.deleted)
	}

	if _, err := svc.Update(ctx, -1, domain.Record(`{}`)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for negative index, got %v", err)
	}
}

func TestRecordService_ImportCountsFailures(t *testing.T) {
	rows := []domain.Record{
		domain.Record(`{"name":"ok-1"}`),
		domain.Record(`{"name":"bad"}`),
		domain.Record(`{"name":"ok-2"}`),
	}
	store := &stubRecordStore{rejectFn: func(r domain.Record) bool {
		var m map[string]string
		_ = json.Unmarshal(r, &m)
		return m["name"] == "bad"
	}}
	svc := NewRecordService(store, &stubParser{records: rows}, sequentialDispatcher{}, nopLogger())

	res, err := svc.Import(context.Background(), "rows.xlsx", strings.NewReader(""))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 imported / 1 failed, got %+v", res)
	}
	if len(store.created) != 2 {
		t.Fatalf("expected 2 upstream creates, got %d", len(store.created))
	}
}

func TestRecordService_ImportParseError(t *testing.T) {
	parseErr := domain.NewValidationError("unsupported file type")
	svc := NewRecordService(&stubRecordStore{}, &stubParser{err: parseErr}, sequentialDispatcher{}, nopLogger())

	_, err := svc.Import(context.Background(), "rows.pdf", strings.NewReader(""))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordService_ImportRejectsEmptyRows(t *testing.T) {
	rows := []domain.Record{
		domain.Record(`{ "name" : "first" }`),
		domain.Record(`{}`),
		domain.Record(`["not","an","object"]`),
		domain.Record(`{"name":"second"}`),
	}
	store := &stubRecordStore{}
	svc := NewRecordService(store, &stubParser{records: rows}, sequentialDispatcher{}, nopLogger())

	res, err := svc.Import(context.Background(), "rows.csv", strings.NewReader(""))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 2 || res.Failed != 2 {
		t.Fatalf("expected 2 imported / 2 failed, got %+v", res)
	}
	if len(store.created) != 2 || string(store.created[0]) != `{"name":"first"}` || string(store.created[1]) != `{"name":"second"}` {
		t.Fatalf("unexpected upstream creates: %q", store.created)
	}
}
