// Package rebase edits and replays a commit graph.
//
// An Editor holds a plan: an arena of steps, one per commit, with parent edges between
// them. Work happens in three phases with a strict order:
//   - Plan mutation (SelectCommit, SelectReference, Insert): in memory, no hashing
//   - Execution (Rebase): re-encodes every step whose parents changed into a staging
//     store and computes the old→new identity mapping
//   - Materialization (Outcome.Materialize): writes the staged objects parents first
//     and moves references with compare-and-swap
//
// Nothing reaches the repository before Materialize, so a failure in the first two
// phases leaves it untouched.
//
// An Editor is not safe for concurrent use.
package rebase
