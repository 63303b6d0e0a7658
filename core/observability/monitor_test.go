package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor(t *testing.T) {
	m := NewMonitor()

	m.Record("GET ola", 10*time.Millisecond, false)
	m.Record("GET ola", 20*time.Millisecond, false)
	m.Record("GET ola", 30*time.Millisecond, true)

	s, ok := m.Route("GET ola")
	require.True(t, ok)
	assert.Equal(t, uint64(3), s.Count)
	assert.Equal(t, uint64(1), s.Errors)
	assert.Equal(t, 20*time.Millisecond, s.Average)
	assert.Equal(t, 10*time.Millisecond, s.Min)
	assert.Equal(t, 30*time.Millisecond, s.Max)
	assert.InDelta(t, 1.0/3, s.ErrorRate(), 1e-9)
	assert.Equal(t, []uint64{0, 0, 0, 3, 0, 0, 0, 0}, s.Buckets)

	_, ok = m.Route("GET missing")
	assert.False(t, ok)
	assert.Equal(t, uint64(3), m.Total())
}

func TestMonitorSnapshotOrder(t *testing.T) {
	m := NewMonitor()
	m.Record("POST sum", time.Millisecond, false)
	m.Record("GET index", time.Millisecond, false)
	m.Record("GET ola", time.Millisecond, false)

	var routes []string
	for _, s := range m.Snapshot() {
		routes = append(routes, s.Route)
	}
	assert.Equal(t, []string{"GET index", "GET ola", "POST sum"}, routes)
}

func TestMonitorFindings(t *testing.T) {
	m := NewMonitor()

	// Simulate slow handler
	for i := 0; i < 100; i++ {
		m.Record("GET slow", 150*time.Millisecond, false)
	}
	for i := 0; i < 10; i++ {
		m.Record("GET flaky", time.Millisecond, i%2 == 0)
	}
	m.Record("GET fine", time.Millisecond, false)

	findings := m.Findings(100*time.Millisecond, 0.05)
	require.Len(t, findings, 2)
	assert.Equal(t, "errors", findings[0].Type)
	assert.Equal(t, "GET flaky", findings[0].Route)
	assert.Equal(t, "latency", findings[1].Type)
	assert.Equal(t, "GET slow", findings[1].Route)
}

func TestMonitorConcurrent(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record("GET index", time.Duration(j+1)*time.Microsecond, false)
			}
		}()
	}
	wg.Wait()

	s, ok := m.Route("GET index")
	require.True(t, ok)
	assert.Equal(t, uint64(800), s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
	assert.Equal(t, 100*time.Microsecond, s.Max)
}

func BenchmarkRecord(b *testing.B) {
	m := NewMonitor()
	duration := 10 * time.Millisecond

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Record("GET api", duration, false)
	}
}
