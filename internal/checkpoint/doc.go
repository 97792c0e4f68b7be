// Package checkpoint persists the two artifacts that make runs resumable:
// the identifier list produced by phase 1 and the CSV output produced by
// phase 2.
//
// # Identifier list
//
// The list is a newline-delimited text file, deduplicated and sorted in
// ascending numeric order. It is replaced atomically (temp file plus
// rename) so a crash mid-write can never leave a truncated list that a
// later run would silently treat as complete.
//
// # CSV output
//
// The output table grows append-only, one batch at a time, with the
// writer flushing after every batch so an interrupted run keeps every
// record that was reported to it. Resume works by re-reading the key
// column of the existing file: identifiers already present are skipped,
// and new records are appended without a second header.
//
// Design decision: the CSV header is derived lazily from the first
// non-empty batch rather than declared up front, because the site decides
// the columns (demographic labels, sentence fields) and they have changed
// over time. Later batches are projected onto that header: unknown
// columns are dropped and missing ones left blank, so every row always
// matches the header exactly.
package checkpoint
