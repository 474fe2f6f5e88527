// Package diagnostic provides structured errors, warnings and notes for the
// mapping generator.
//
// Every diagnostic is attributable to a declaration and, where it applies,
// to one member (field or enum case) of it. A failing declaration never
// aborts the round for the others; its diagnostics say why it was skipped,
// abandoned or deferred.
package diagnostic
