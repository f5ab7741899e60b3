// Package textutil provides the label normalization and cleanup helpers shared
// by catalog matching and AI reply handling.
//
// Normalize folds a label to lowercase ASCII alphanumerics so "Sony CDP-227ESD",
// "sony cdp 227 esd", and "SONY/CDP227ESD" compare equal. MatchNormalized is the
// bidirectional containment test used for both search filtering and the
// "already in the catalog" check that gates AI escalation.
package textutil
