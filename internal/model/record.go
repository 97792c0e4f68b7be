package model

import (
	"fmt"
	"sort"
)

// Well-known record columns and status values.
//
// Design decision: ColumnAIS is spelled exactly "AIS #" (with the space and
// hash) because it doubles as the resume key when re-reading a previous
// run's CSV output. The value must therefore stay stable across versions;
// renaming it would make every existing output file look unprocessed.
const (
	// ColumnAIS is the identifier column present in every record.
	ColumnAIS = "AIS #"

	// ColumnStatus carries the outcome for identifiers that produced no
	// detail data. Successful records do not set it.
	ColumnStatus = "Status"

	// StatusNoResult marks an identifier the search form could not
	// resolve to a details page. This is a normal outcome, not a failure.
	StatusNoResult = "No_Result_Found"
)

// Record is one flattened detail record, keyed by output column name.
// A record always carries ColumnAIS. Parsers merge summary, demographic,
// free-text, and per-sentence fields into it; the CSV writer projects it
// onto the run's fixed header.
type Record map[string]string

// NewRecord returns a record carrying only the identifier.
func NewRecord(ais string) Record {
	return Record{ColumnAIS: ais}
}

// NewNotFoundRecord returns the single record emitted for an identifier
// the remote form reports no match for.
func NewNotFoundRecord(ais string) Record {
	return Record{
		ColumnAIS:    ais,
		ColumnStatus: StatusNoResult,
	}
}

// NewErrorRecord returns the single record emitted for an identifier whose
// fetch or parse failed. The kind names the failure class (for example
// "ProtocolError" or "NetworkError") so failures remain greppable in the
// output without a separate error log.
func NewErrorRecord(ais, kind string, err error) Record {
	return Record{
		ColumnAIS:    ais,
		ColumnStatus: fmt.Sprintf("Error: %s - %v", kind, err),
	}
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies all entries of other into r, overwriting on collision.
// Used to cross-join incarceration summaries with sentence rows.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

// Keys returns the record's column names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsError reports whether the record carries a failure status.
// Not-found records are not errors.
func (r Record) IsError() bool {
	status, ok := r[ColumnStatus]
	if !ok {
		return false
	}
	return status != "" && status != StatusNoResult
}
