package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cdfinder/internal/catalog"
	"cdfinder/internal/logging"
)

// DefaultPageSize is the window size requested from the store.
const DefaultPageSize = 1000

// Store returns windows of catalog rows ordered ascending by label.
type Store interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Configured reports whether the store has the settings it needs to be queried.
	Configured() bool
	// FetchPage returns at most limit rows starting at offset.
	FetchPage(ctx context.Context, offset, limit int) ([]catalog.Record, error)
}

// ErrNotConfigured marks a store that lacks connection settings.
var ErrNotConfigured = errors.New("catalog store not configured")

// ConnectionError reports a failed catalog load.
type ConnectionError struct {
	Backend string
	// Offset is the window that failed; -1 when no request was made.
	Offset int
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("catalog %s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("catalog %s: page at offset %d: %v", e.Backend, e.Offset, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Reader performs full paginated loads from a Store.
type Reader struct {
	store    Store
	pageSize int
	logger   *slog.Logger
}

// NewReader builds a Reader. A non-positive pageSize selects DefaultPageSize.
func NewReader(store Store, pageSize int, logger *slog.Logger) *Reader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reader{
		store:    store,
		pageSize: pageSize,
		logger:   logging.NewComponentLogger(logger, "catalog-source"),
	}
}

// Backend returns the store name, or "none" when no store is attached.
func (r *Reader) Backend() string {
	if r == nil || r.store == nil {
		return "none"
	}
	return r.store.Name()
}

// Configured reports whether a load could be attempted.
func (r *Reader) Configured() bool {
	return r != nil && r.store != nil && r.store.Configured()
}

// LoadAll fetches every page sequentially. It stops on a page shorter than
// the page size or an empty page. Rows with blank labels are skipped.
func (r *Reader) LoadAll(ctx context.Context) ([]catalog.Record, error) {
	if !r.Configured() {
		return nil, &ConnectionError{Backend: r.Backend(), Offset: -1, Err: ErrNotConfigured}
	}

	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()
	var (
		all     []catalog.Record
		offset  int
		pages   int
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &ConnectionError{Backend: r.store.Name(), Offset: offset, Err: err}
		}
		page, err := r.store.FetchPage(ctx, offset, r.pageSize)
		pages++
		if err != nil {
			return nil, &ConnectionError{Backend: r.store.Name(), Offset: offset, Err: err}
		}
		for _, rec := range page {
			rec.Label = strings.TrimSpace(rec.Label)
			if rec.Label == "" {
				skipped++
				continue
			}
			rec.Origin = catalog.OriginAuthoritative
			all = append(all, rec)
		}
		if len(page) < r.pageSize {
			break
		}
		offset += r.pageSize
	}

	if skipped > 0 {
		logger.Debug("skipped catalog rows without a model name", logging.Int("skipped", skipped))
	}
	logger.Info("catalog loaded",
		logging.String("backend", r.store.Name()),
		logging.Int("records", len(all)),
		logging.Int("pages", pages),
		logging.Duration("elapsed", time.Since(start)))
	if all == nil {
		all = []catalog.Record{}
	}
	return all, nil
}
