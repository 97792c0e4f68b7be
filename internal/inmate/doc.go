// Package inmate implements phase 2: resolving one AIS number to its
// flattened detail records.
//
// # Architecture
//
// The Fetcher owns the three-step postback conversation (landing form,
// identifier search, detail postback) and hands the final page to the
// parser. Each lookup runs in its own postback session so a failure
// cannot poison another identifier's cookies or tokens.
//
// The parser flattens the detail page into one record per sentence row.
// Static fields (name, demographics, free-text sections) repeat on every
// record of the same inmate; a page without sentence history still yields
// exactly one record. Parsers never fail: absent sections are simply
// absent columns, so one odd page degrades to a thinner record instead of
// an error.
//
// # Usage
//
//	fetcher := inmate.NewFetcher(cfg)
//	records := fetcher.Process(ctx, "00123456")
//
// Process never returns an error. An identifier the site cannot resolve
// yields its not-found record, and a failed fetch yields a record whose
// Status column names the failure, so the output file accounts for every
// identifier it was asked about.
package inmate
