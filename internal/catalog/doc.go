// Package catalog holds CD-player specification records and the pure
// functions that combine and filter them.
//
// Two collections feed the merged view: authoritative records loaded from the
// remote store, and generated records produced by AI lookups during the
// current session. Merge concatenates them (authoritative first), optionally
// collapses entries whose normalized labels collide, and sorts by raw label.
// Filter narrows a view to the records whose normalized label and the
// normalized query contain one another.
//
// Catalog wraps both collections behind a mutex and recomputes the merged
// view inside every mutation, so readers never observe a stale view.
package catalog
