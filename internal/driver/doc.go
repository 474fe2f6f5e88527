// Package driver runs generation rounds.
//
// Each round loads the declaration graph from scratch, plans every annotated
// declaration and emits one unit per shape package. Rounds repeat while
// declarations are deferred and the previous round changed some output, up
// to the configured limit. Nothing but emitted file contents carries over
// from one round to the next.
package driver
