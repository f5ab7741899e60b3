package catalog

import (
	"slices"
	"strings"

	"cdfinder/internal/textutil"
)

// MergeOptions controls how collections are combined.
type MergeOptions struct {
	// Dedupe keeps only the first record for each normalized label.
	Dedupe bool
}

// Merge concatenates authoritative then generated records, drops later
// duplicates by normalized label when opts.Dedupe is set, and stable-sorts
// the result by raw label (byte-wise). Inputs are not modified.
//
// Records whose label normalizes to the empty string are never collapsed
// into each other.
func Merge(authoritative, generated []Record, opts MergeOptions) []Record {
	out := make([]Record, 0, len(authoritative)+len(generated))
	var seen map[string]struct{}
	if opts.Dedupe {
		seen = make(map[string]struct{}, len(authoritative)+len(generated))
	}

	add := func(records []Record) {
		for _, rec := range records {
			if seen != nil {
				key := textutil.Normalize(rec.Label)
				if key != "" {
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
			}
			out = append(out, rec)
		}
	}
	add(authoritative)
	add(generated)

	slices.SortStableFunc(out, func(a, b Record) int {
		return strings.Compare(a.Label, b.Label)
	})
	return out
}
