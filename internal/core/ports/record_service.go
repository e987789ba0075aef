package ports

import (
	"context"
	"io"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

// RecordStore is the external spreadsheet API. Bodies pass through untouched.
type RecordStore interface {
	List(ctx context.Context) (domain.Record, error)
	Create(ctx context.Context, record domain.Record) (domain.Record, error)
	Update(ctx context.Context, index int, record domain.Record) (domain.Record, error)
	Delete(ctx context.Context, index int) (domain.Record, error)
}

// RecordService proxies record CRUD and runs bulk imports.
type RecordService interface {
	List(ctx context.Context) (domain.Record, error)
	Create(ctx context.Context, record domain.Record) (domain.Record, error)
	Update(ctx context.Context, index int, record domain.Record) (domain.Record, error)
	Delete(ctx context.Context, index int) (domain.Record, error)
	Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}
