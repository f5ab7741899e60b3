// Package preflight provides readiness checks for the paths and services
// cdfinder depends on.
//
// The CLI "cdfinder status" command runs RunAll and renders one line per
// check. Checks for optional features (camera capture, AI) report as skipped
// rather than failed when the feature is not configured.
package preflight
