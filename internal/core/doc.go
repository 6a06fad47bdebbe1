// Package core provides the in-memory table pipeline for the apartment price
// viewer.
//
// This package holds all domain logic independent of any UI or transport
// layer. Web handlers, tests and the export path all go through [Service].
//
// # Architecture
//
// A load turns the published sheet into an immutable [Dataset]:
//
//  1. A [Source] fetches the sheet as CSV records
//  2. [NormalizeRows] trims cells, forces a fixed width and drops empty rows
//  3. [Dedupe] keeps the most complete row per access key
//  4. [Registry.Resolve] maps header cells to groups, roles and visibility
//  5. [ExtractFacets] collects the distinct values of every visible column
//
// Every request then derives a [View] from the dataset and a [ViewState]
// using [Apply]: default order, filters, the incomplete-row toggle and the
// user sort, in that order. Nothing in the pipeline mutates the dataset.
//
// # Column Registry
//
// Column groups, hidden columns and role columns come from a TOML document.
// The compiled-in default is embedded from columns.toml; a replacement can be
// loaded with [LoadRegistry]. Header names are compared after removing all
// whitespace and composing Hangul to NFC, so "공급 평형" and "공급평형" name
// the same column.
//
// # Korean Ordering
//
// String comparisons use a Korean collator from golang.org/x/text/collate.
// Collators are not safe for concurrent use, so each derivation builds its own.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CFG001-CFG002: Configuration errors (no source, bad registry)
//   - SRC001-SRC003, CSV001: Source errors (fetch, status, empty, parse)
//   - DAT001: Dataset not loaded yet
//   - EXP001-EXP003: Export errors (no rows, exporter disabled, all slots busy)
//   - REQ001-REQ002: Request errors (cancelled, timeout)
//
// A failed load never replaces the current dataset; the previous snapshot
// stays visible and [Service.Status] reports the failure.
package core
