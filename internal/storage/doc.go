// Package storage persists JSON documents as named files under a root directory.
//
// Names are slash-separated paths relative to the root (for example
// "matches/2370001_insights.json"); parent directories are created on demand.
// Writes go to a temporary file that is renamed into place, so readers never see a
// half-written document. Update wraps a read-modify-write cycle in an exclusive
// file lock, making check-then-create sequences safe across processes.
package storage
