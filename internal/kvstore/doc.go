// Package kvstore is the suite-scoped byte-blob store shared by the agent and
// the CLI.
//
// Drivers:
//   - "memory": process-local map (tests, --ephemeral)
//   - "file": JSON Lines journal plus snapshot, one pair per suite
//   - "sqlite": a single table keyed by (suite, key)
//
// Writes are visible to later reads in the same process. Across processes the
// file and sqlite drivers see each other's writes, but a read-modify-write by
// two processes is last-writer-wins.
package kvstore
