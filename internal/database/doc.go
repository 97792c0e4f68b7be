// Package database provides SQLite-based storage for the run ledger.
//
// The ledger keeps one row per completed collect or process run: when it
// started, how long it took, how many units succeeded or failed, and
// where the output went. The history command reads it; both phase
// commands append to it after their reports are written.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of a
// plain log file or other databases because:
//  1. No external dependencies - the ledger is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Filtering and ordering by phase and date come for free
//  4. WAL mode keeps concurrent history reads cheap
package database
