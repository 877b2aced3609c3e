// ABOUTME: Load-through cache of SoundBuffers keyed by file path
// ABOUTME: Keeps repeated effect triggers from re-decoding the same file
package aural

import "sync"

// BufferCache loads SoundBuffers from files and hands back the same buffer
// for repeated requests of the same path. Safe for concurrent use.
type BufferCache struct {
	mu   sync.Mutex
	bufs map[string]*SoundBuffer
}

// NewBufferCache returns an empty cache.
func NewBufferCache() *BufferCache {
	return &BufferCache{bufs: make(map[string]*SoundBuffer)}
}

// Load returns the cached buffer for path, decoding the file on first use.
func (c *BufferCache) Load(path string) (*SoundBuffer, error) {
	c.mu.Lock()
	if sb, ok := c.bufs[path]; ok {
		c.mu.Unlock()
		return sb, nil
	}
	c.mu.Unlock()

	// decode outside the lock; a racing Load of the same path keeps the
	// first buffer stored
	sb, err := LoadSoundBufferFromFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prior, ok := c.bufs[path]; ok {
		sb.Close()
		return prior, nil
	}
	c.bufs[path] = sb
	return sb, nil
}

// Evict closes and forgets the buffer for path, if cached. Sounds playing
// from it are stopped.
func (c *BufferCache) Evict(path string) {
	c.mu.Lock()
	sb, ok := c.bufs[path]
	delete(c.bufs, path)
	c.mu.Unlock()
	if ok {
		sb.Close()
	}
}

// Clear closes and forgets every cached buffer.
func (c *BufferCache) Clear() {
	c.mu.Lock()
	bufs := c.bufs
	c.bufs = make(map[string]*SoundBuffer)
	c.mu.Unlock()
	for _, sb := range bufs {
		sb.Close()
	}
}

// Len returns the number of cached buffers.
func (c *BufferCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bufs)
}
