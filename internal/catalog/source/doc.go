// Package source loads the authoritative catalog from a paginated store.
//
// A Store returns one window of rows at a time, ordered by label. Reader walks
// the windows sequentially until a short or empty page arrives and returns the
// concatenation. Any failing page aborts the whole load and discards the rows
// already received, surfacing a *ConnectionError so callers can keep the
// previously loaded catalog.
//
// Backends live in sub-packages: postgrest (Supabase REST), postgres (pgx),
// sqlite (modernc), and builtin (the bundled seed list).
package source
