// Package workspace persists batch-description progress in a single JSON
// document and exposes the operations the pipeline drives: item
// registration, lifecycle transitions, resume planning, running statistics,
// and change notification.
//
// One workspace is one document (name.idw) plus three transient siblings: a
// one-generation backup (name.bak), a lock marker present only during a
// save (name.lock), and a staging file (name.tmp). Saves are atomic
// (write-to-temp then rename) and guarded by a FileLock; loads serve an
// mtime-gated cache and recover from the backup when the primary is
// unreadable. Progress counters are recomputed inside the same save as the
// mutation that changed them, so they always agree with the item map.
//
// Mutating operations are serialized within a process by the Store's lock.
// Across processes, ordering relies on the FileLock alone; the fallback
// lock strategy provides no real exclusion and racing writers on such
// platforms resolve by last atomic rename.
package workspace
