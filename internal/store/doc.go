// Package store keeps customers and invoices in an in-memory SQLite image
// and makes that image durable by snapshotting it into a blob store.
//
// # Lifecycle
//
// A Store owns at most one live database handle and moves through
//
//	Uninitialized → Initializing → Ready → Closed
//
// The handle is created lazily by the first operation (or an explicit
// Initialize). Initialization reads the snapshot stored under Options.Key;
// if it decodes, the image is loaded, otherwise a fresh image is created and
// the schema applied. Concurrent initializations collapse into one.
//
// # Persistence
//
// Every successful mutation is two-phase:
//
//  1. Apply: the statement runs against the in-memory image.
//  2. Persist: the whole image is serialized, encoded, and written to the
//     blob store, overwriting the previous snapshot. Change listeners fire
//     after the write.
//
// Persist is a full-image rewrite, so every mutation costs O(database size).
// If persist fails, the in-memory change stays applied but is not durable;
// the error is returned to the caller and nothing is rolled back.
//
// # Referential integrity
//
// Invoices reference customers by customerId. The schema declares no
// foreign key; deleting a customer deletes its invoices first, inside the
// same transaction.
//
// # Concurrency
//
// The store assumes a single logical writer. Callers serialize their own
// mutations; only initialization is internally deduplicated.
package store
