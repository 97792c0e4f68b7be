// Package model defines the core data structures shared across aisharvest.
//
// This package contains the following main types:
//   - Record: A flattened detail record destined for one CSV row
//   - TermResult: The outcome of enumerating one search term
//   - RunSummary: Aggregate statistics for a completed collect or process run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, inmate, checkpoint, database,
// report) need to use these types, so centralizing them prevents import
// cycles.
//
// Column names and status values are defined here as constants because they
// are load-bearing: the output CSV's resume logic keys on the exact
// identifier column name, so changing it silently breaks resumption.
package model
