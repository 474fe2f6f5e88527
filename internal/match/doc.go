// Package match ranks identifier names by similarity.
//
// It backs the "did you mean" suggestions attached to diagnostics when a
// renamed field or enum case has no counterpart on the domain side.
//
// Scoring pipeline:
//   - Identifiers are split on CamelCase and separators, lowercased, and joined
//   - Levenshtein distance is normalized to a 0..1 similarity
//   - Candidates below MinSuggestScore are dropped
package match
