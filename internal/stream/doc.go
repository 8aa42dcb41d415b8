// Package stream owns per-stream ingestion sessions.
//
// Ownership boundary:
// - binding one detection mode and one decoder method to a byte source
// - ordered delivery of decoded payloads to a luigi sink
// - caller-level buffer limits and session teardown
//
// Lifecycle:
// - NewSession validates configuration before any byte is accepted.
// - Feed (or Run) appends, detects and decodes synchronously.
// - Close discards the buffer and any partial frame.
//
// Sessions share nothing; run as many in parallel as there are sources.
package stream
