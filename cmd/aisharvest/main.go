// Package main provides the entry point for the aisharvest CLI.
//
// aisharvest is a two-phase harvester for the Alabama Department of
// Corrections inmate search portal. Phase 1 (collect) enumerates AIS
// numbers into a checkpoint list; phase 2 (process) resolves each number
// into flattened CSV records.
//
// Usage:
//
//	aisharvest collect
//	aisharvest process
//
// See --help for all available options.
package main

// main is the entry point for aisharvest.
func main() {
	Execute()
}
