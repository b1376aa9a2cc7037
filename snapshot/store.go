package snapshot

// Store is a keyed blob store for serialized run snapshots. Keys are
// opaque identity strings; values are JSON documents.
type Store interface {
	// Get returns the blob for key, with ok=false when absent.
	Get(key string) (data []byte, ok bool, err error)

	// Set writes the blob for key, replacing any previous value.
	Set(key string, data []byte) error

	// Remove deletes the blob for key. Removing an absent key is not an
	// error.
	Remove(key string) error
}
