// Package session coordinates a single user's lookup session: catalog
// refreshes, image identification, the authoritative catalog check, and
// escalation to an AI spec lookup when the catalog has no answer.
//
// The Orchestrator is safe for concurrent callers. Identification and
// escalation share one busy flag, so overlapping work is rejected with
// ErrBusy rather than queued. Refreshes are collapsed so concurrent callers
// share one load. Every failure is turned into a Notice for display and also
// returned so CLI commands can set an exit code.
package session
