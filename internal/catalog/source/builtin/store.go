// Package builtin serves the bundled seed catalog of well-known players. It
// needs no network and is used when no remote store is configured for
// offline demos and tests.
package builtin

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"cdfinder/internal/catalog"
)

//go:embed seed.json
var seedJSON []byte

type seedRow struct {
	Model string `json:"model"`
	DAC   string `json:"dac"`
	Laser string `json:"laser"`
}

// Store pages through an in-memory, label-ordered record list.
type Store struct {
	once    sync.Once
	records []catalog.Record
	err     error
	raw     []byte
}

// New returns a store over the bundled seed list.
func New() *Store {
	return &Store{raw: seedJSON}
}

// NewFromJSON returns a store over caller-supplied rows in the seed format.
func NewFromJSON(data []byte) *Store {
	return &Store{raw: data}
}

// Name implements source.Store.
func (s *Store) Name() string { return "builtin" }

// Configured implements source.Store.
func (s *Store) Configured() bool { return len(s.raw) > 0 }

// FetchPage implements source.Store.
func (s *Store) FetchPage(ctx context.Context, offset, limit int) ([]catalog.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.records) || limit <= 0 {
		return []catalog.Record{}, nil
	}
	end := min(offset+limit, len(s.records))
	return slices.Clone(s.records[offset:end]), nil
}

func (s *Store) load() {
	var rows []seedRow
	if err := json.Unmarshal(s.raw, &rows); err != nil {
		s.err = fmt.Errorf("decode seed catalog: %w", err)
		return
	}
	records := make([]catalog.Record, 0, len(rows))
	for i, row := range rows {
		records = append(records, catalog.Record{
			Label:  strings.TrimSpace(row.Model),
			DAC:    strings.TrimSpace(row.DAC),
			Laser:  strings.TrimSpace(row.Laser),
			Origin: catalog.OriginAuthoritative,
			ID:     "seed-" + strconv.Itoa(i+1),
		})
	}
	slices.SortStableFunc(records, func(a, b catalog.Record) int {
		return strings.Compare(a.Label, b.Label)
	})
	s.records = records
}
