package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/sollo/sheet-admin/internal/core/domain"
	"github.com/sollo/sheet-admin/internal/core/ports"
)

// SheetParser turns an uploaded spreadsheet into one record per data row.
type SheetParser interface {
	Parse(filename string, r io.Reader) ([]domain.Record, error)
}

// ImportDispatcher prepares records concurrently, commits them one at a
// time in input order and reports how many were committed.
type ImportDispatcher interface {
	Dispatch(
		ctx context.Context,
		records []domain.Record,
		prepare func(context.Context, domain.Record) (domain.Record, error),
		commit func(context.Context, domain.Record) error,
	) (succeeded, failed int)
}

type recordService struct {
	store      ports.RecordStore
	parser     SheetParser
	dispatcher ImportDispatcher
	log        zerolog.Logger
}

// NewRecordService returns a RecordService. A nil store makes every
// operation fail with domain.ErrRecordStoreUnavailable.
func NewRecordService(store ports.RecordStore, parser SheetParser, dispatcher ImportDispatcher, log zerolog.Logger) ports.RecordService {
	return &recordService{
		store:      store,
		parser:     parser,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (s *recordService) List(ctx context.Context) (domain.Record, error) {
	if s.store == nil {
		return nil, domain.ErrRecordStoreUnavailable
	}
	return s.store.List(ctx)
}

func (s *recordService) Create(ctx context.Context, record domain.Record) (domain.Record, error) {
	if s.store == nil {
		return nil, domain.ErrRecordStoreUnavailable
	}
	return s.store.Create(ctx, record)
}

func (s *recordService) Update(ctx context.Context, index int, record domain.Record) (domain.Record, error) {
	if s.store == nil {
		return nil, domain.ErrRecordStoreUnavailable
	}
	if index < 0 {
		return nil, domain.NewValidationError("record index must not be negative")
	}
	return s.store.Update(ctx, index, record)
}

func (s *recordService) Delete(ctx context.Context, index int) (domain.Record, error) {
	if s.store == nil {
		return nil, domain.ErrRecordStoreUnavailable
	}
	if index < 0 {
		return nil, domain.NewValidationError("record index must not be negative")
	}
	return s.store.Delete(ctx, index)
}

// Import parses the upload and creates one upstream record per row, in file
// order. Rows that the record store rejects are counted, not fatal.
func (s *recordService) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	if s.store == nil {
		return nil, domain.ErrRecordStoreUnavailable
	}

	records, err := s.parser.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filename, err)
	}

	ok, failed := s.dispatcher.Dispatch(ctx, records, prepareRow, func(ctx context.Context, rec domain.Record) error {
		_, err := s.store.Create(ctx, rec)
		if err != nil {
			s.log.Warn().Err(err).Str("file", filename).Msg("import row rejected")
		}
		return err
	})

	s.log.Info().Str("file", filename).Int("imported", ok).Int("failed", failed).Msg("import finished")
	return &domain.ImportResult{Imported: ok, Failed: failed}, nil
}

// prepareRow compacts a parsed row and rejects anything that is not a
// non-empty JSON object.
func prepareRow(_ context.Context, rec domain.Record) (domain.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return nil, domain.NewValidationError("row is not a JSON object")
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("row has no values")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, rec); err != nil {
		return nil, fmt.Errorf("compact row: %w", err)
	}
	return domain.Record(buf.Bytes()), nil
}
