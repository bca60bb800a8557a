// Package storage persists grid checkpoints in Badger.
//
// A checkpoint is a full copy of the grid written record by record with
// read-only access, each record sealed with a murmur3 checksum. Restoring
// happens before the grid is shared and fails as a whole when any record is
// missing or damaged.
//
//   - badger.go: Store lifecycle, value log GC and metrics
//   - checkpoint.go: Save, Restore, Verify and the periodic checkpoint loop
package storage
