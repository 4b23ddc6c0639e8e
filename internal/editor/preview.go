package editor

import "sync"

// PreviewStore holds the raw bytes behind session-local preview references
// (preview://{key}) while an upload is in flight. Entries are released
// exactly once on every terminal upload path; Release reports whether the
// entry was still held so double releases are detectable.
type PreviewStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewPreviewStore returns an empty preview store.
func NewPreviewStore() *PreviewStore {
	return &PreviewStore{blobs: make(map[string][]byte)}
}

// Put registers preview bytes under an upload key.
func (p *PreviewStore) Put(key string, data []byte) {
	p.mu.Lock()
	p.blobs[key] = data
	p.mu.Unlock()
}

// Get returns the preview bytes for a key.
func (p *PreviewStore) Get(key string) ([]byte, bool) {
	p.mu.Lock()
	data, ok := p.blobs[key]
	p.mu.Unlock()
	return data, ok
}

// Release frees the preview bytes for a key, reporting whether an entry was
// held. Releasing an unknown key is a no-op.
func (p *PreviewStore) Release(key string) bool {
	p.mu.Lock()
	_, ok := p.blobs[key]
	delete(p.blobs, key)
	p.mu.Unlock()
	return ok
}

// Len returns the number of live previews.
func (p *PreviewStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.blobs)
}
