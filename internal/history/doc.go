// Package history persists a log of processed recordings in SQLite.
//
// Each call to the pipeline records one Run: when it started and finished,
// which models ran, how many segments and speakers came out, the artifacts
// written, and the error text when it failed. The database uses WAL mode and
// retries briefly when another process holds the write lock, so concurrent
// batch workers and CLI invocations can share it.
package history
