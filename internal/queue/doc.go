// Package queue persists pending uploads in SQLite and guards the
// invariants the rest of fieldsync depends on.
//
// The Store is the durable side of the offline queue: a record inserted
// by Add survives process restarts and is either fully present or fully
// absent after an unclean shutdown (WAL journal, one INSERT per record).
// Records are only ever mutated by the processor (retry count) and only
// deleted after a handler confirms delivery.
//
// PendingUpload is a tagged union over a closed set of upload types;
// each type carries its own statically typed payload, so handlers never
// inspect dynamic shapes. Binary attachments are stored as raw BLOBs.
//
// Treat this package as the single source of truth for queue semantics;
// new upload types need a payload variant, a migration when columns
// change, and a handler registration.
package queue
