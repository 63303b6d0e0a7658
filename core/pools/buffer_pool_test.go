package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPool_Tiers(t *testing.T) {
	testCases := []struct {
		Name     string
		Size     int
		Capacity int
	}{
		{Name: "small", Size: 100, Capacity: SmallBufferSize},
		{Name: "medium", Size: SmallBufferSize + 1, Capacity: MediumBufferSize},
		{Name: "large", Size: LargeBufferSize, Capacity: LargeBufferSize},
		{Name: "oversize", Size: LargeBufferSize*4 + 1, Capacity: LargeBufferSize*4 + 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			bp := NewBufferPool()
			buf := bp.Get(testCase.Size)
			assert.Len(t, *buf, 0)
			assert.GreaterOrEqual(t, cap(*buf), testCase.Capacity)
		})
	}
}

func TestBufferPool_PutResets(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(10)
	*buf = append(*buf, "hello"...)
	bp.Put(buf)

	again := bp.Get(10)
	assert.Len(t, *again, 0)
	bp.Put(nil)
}

func TestBufferPool_Stats(t *testing.T) {
	bp := NewBufferPool()
	bp.Get(10)
	bp.Get(LargeBufferSize * 4)

	stats := bp.Stats()
	assert.Equal(t, uint64(2), stats.Gets)
	assert.Equal(t, uint64(1), stats.Oversize)
	assert.GreaterOrEqual(t, stats.Misses, uint64(1))
	assert.GreaterOrEqual(t, stats.HitRate, 0.0)
	assert.LessOrEqual(t, stats.HitRate, 1.0)
}

func BenchmarkBufferPool(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := AcquireBuffer(512)
			*buf = append(*buf, "HTTP/1.1 200\r\n"...)
			ReleaseBuffer(buf)
		}
	})
}
