// Package identification turns a photo of a CD player into a model label and
// a model label into its DAC and laser pickup, using an AI completion
// provider.
//
// The Identifier owns the prompts and reply parsing. Provider selection lives
// in NewCompleter so callers only deal with llm.Completer. CachedIdentifier
// memoizes image identifications keyed by the image digest.
package identification
