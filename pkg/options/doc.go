// Package options recovers selectable choices from assistant prose and coerces user
// replies into canonical answer values.
//
// Only the most recent assistant turn is ever parsed. Explicit delimiters win over the
// template-request heuristic, which in turn wins over plain prose.
package options
