package catalog

import (
	"strings"

	"cdfinder/internal/textutil"
)

// FilterOptions controls which fields a query is matched against.
type FilterOptions struct {
	// MatchSpecs also tests the DAC and laser text.
	MatchSpecs bool
}

// Filter returns the records of view that match query. A query that is blank
// after trimming returns view itself. Otherwise a record matches when its
// normalized label contains the normalized query or the reverse, so a query
// that normalizes to nothing keeps every record. The result preserves view
// order and is never nil.
func Filter(view []Record, query string, opts FilterOptions) []Record {
	if strings.TrimSpace(query) == "" {
		return view
	}
	term := textutil.Normalize(query)
	out := make([]Record, 0)
	for _, rec := range view {
		if matchRecord(rec, term, opts) {
			out = append(out, rec)
		}
	}
	return out
}

func matchRecord(rec Record, term string, opts FilterOptions) bool {
	if textutil.MatchNormalized(textutil.Normalize(rec.Label), term) {
		return true
	}
	if !opts.MatchSpecs {
		return false
	}
	return textutil.MatchNormalized(textutil.Normalize(rec.DAC), term) ||
		textutil.MatchNormalized(textutil.Normalize(rec.Laser), term)
}

// ContainsLabel reports whether any record's normalized label and the
// normalized label contain one another.
func ContainsLabel(records []Record, label string) bool {
	term := textutil.Normalize(label)
	for _, rec := range records {
		if textutil.MatchNormalized(textutil.Normalize(rec.Label), term) {
			return true
		}
	}
	return false
}
