package pools

import (
	"sync"
	"sync/atomic"
)

// Buffer pool sizes
const (
	SmallBufferSize  = 2 * 1024  // 2KB for plain text answers
	MediumBufferSize = 8 * 1024  // 8KB for typical JSON
	LargeBufferSize  = 32 * 1024 // 32KB for larger bodies
)

// BufferPool hands out response buffers in three size tiers
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool

	// Statistics
	gets     atomic.Uint64
	misses   atomic.Uint64
	oversize atomic.Uint64
}

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	bp.small.New = bp.allocator(SmallBufferSize)
	bp.medium.New = bp.allocator(MediumBufferSize)
	bp.large.New = bp.allocator(LargeBufferSize)
	return bp
}

func (bp *BufferPool) allocator(size int) func() any {
	return func() any {
		bp.misses.Add(1)
		buf := make([]byte, 0, size)
		return &buf
	}
}

// Get acquires an empty buffer able to hold estimatedSize bytes
func (bp *BufferPool) Get(estimatedSize int) *[]byte {
	bp.gets.Add(1)

	switch {
	case estimatedSize <= SmallBufferSize:
		return bp.small.Get().(*[]byte)
	case estimatedSize <= MediumBufferSize:
		return bp.medium.Get().(*[]byte)
	case estimatedSize <= LargeBufferSize:
		return bp.large.Get().(*[]byte)
	default:
		bp.oversize.Add(1)
		buf := make([]byte, 0, estimatedSize)
		return &buf
	}
}

// Put returns a buffer to the pool
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}

	// Reset buffer but keep capacity
	*buf = (*buf)[:0]

	switch c := cap(*buf); {
	case c < SmallBufferSize:
		// shrunk below every tier, let GC collect it
	case c < MediumBufferSize:
		bp.small.Put(buf)
	case c < LargeBufferSize:
		bp.medium.Put(buf)
	case c <= 2*LargeBufferSize:
		bp.large.Put(buf)
	}
	// Oversized buffers are not pooled
}

// Stats returns buffer pool statistics
func (bp *BufferPool) Stats() BufferStats {
	gets := bp.gets.Load()
	misses := bp.misses.Load()
	hitRate := 0.0
	if gets > 0 {
		hitRate = float64(gets-min(misses, gets)) / float64(gets)
	}
	return BufferStats{
		Gets:     gets,
		Misses:   misses,
		Oversize: bp.oversize.Load(),
		HitRate:  hitRate,
	}
}

// BufferStats contains buffer pool statistics
type BufferStats struct {
	Gets     uint64
	Misses   uint64
	Oversize uint64
	HitRate  float64
}

// Global buffer pool
var globalBufferPool = NewBufferPool()

// AcquireBuffer gets a buffer from the global pool
func AcquireBuffer(estimatedSize int) *[]byte {
	return globalBufferPool.Get(estimatedSize)
}

// ReleaseBuffer returns a buffer to the global pool
func ReleaseBuffer(buf *[]byte) {
	globalBufferPool.Put(buf)
}

// GetBufferStats returns statistics for the global buffer pool
func GetBufferStats() BufferStats {
	return globalBufferPool.Stats()
}
