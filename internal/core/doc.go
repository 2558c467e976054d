// Package core provides the business logic for employee contact ingestion.
//
// This package is the heart of the roster service, containing all domain logic
// independent of any transport or storage engine. It can be used by web
// handlers, the rosterctl CLI, or tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Records: an employee contact (name, email, phone, joined date) plus an
//     ordered set of extra fields. A record's identity is the SHA-256 of its
//     four fixed fields, see [Record.Hash].
//   - Parsers: format-specific extractors registered at init time via
//     [RegisterParser]. The [Dispatcher] picks one from declared metadata and
//     falls back to content sniffing.
//   - Store: the persistence contract ([Store]). Implementations live in the
//     store package and own schema evolution and deduplication.
//   - Service: the entry point for ingest, listing, lookup and update.
//
// # Parser Registry
//
// Parsers register themselves from their own package:
//
//	func init() {
//	    core.RegisterParser(CSV{})
//	    core.RegisterParser(JSON{})
//	}
//
// Registration order is selection order, so the binary that blank-imports the
// formats package decides the priority once.
//
// # Ingest Flow
//
//  1. Client calls [Service.Ingest] with raw content and declared metadata
//  2. The dispatcher selects a parser and extracts a [Batch]
//  3. Each record is checked by the [Validator]; invalid ones are reported
//  4. Valid records are handed to [Store.InsertBatch]; duplicates vanish
//  5. An [IngestReport] lists exactly the newly inserted records
//
// # Error Handling
//
// Every failure is a returned value. Domain errors ([ErrNoParserFound],
// [*ParseError], [ErrNoValidData], [*ValidationError], [ErrNotFound],
// [ErrDuplicateAfterUpdate], [*StorageError]) are mapped to user-friendly
// messages with support codes by [MapError]:
//
//   - EMP001-EMP007: Domain errors (format, validation, lookup, storage)
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - FILE001-FILE005: Payload errors (size, encoding, empty)
//   - UPL002-UPL005: Ingest slot and request lifecycle errors
package core
