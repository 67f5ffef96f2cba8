// Package security_test also carries scalability stress tests for the
// registry and rate limiter under concurrent load.
package security_test

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keniprimo/rendezvous-relay/internal/ratelimit"
	"github.com/keniprimo/rendezvous-relay/internal/room"
)

// STRESS-001: high load room creation/destruction.
func TestStressRoomCreationDestruction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	reg := room.NewRegistry(100000, time.Hour)
	var wg sync.WaitGroup
	var successCount int64

	concurrency := 50
	perWorker := 100

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				r, err := reg.Create(newConn(fmt.Sprintf("10.%d.%d.1", workerID, j)))
				if err == nil {
					atomic.AddInt64(&successCount, 1)
					r.Close()
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	t.Logf("stress test completed: %d successes in %v (%.0f ops/sec)",
		successCount, elapsed, float64(successCount)/elapsed.Seconds())

	if reg.Count() != 0 {
		t.Errorf("expected 0 rooms after stress test, got %d", reg.Count())
	}
}

// STRESS-002: rate limiter under load.
func TestStressRateLimiterPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	limiter := ratelimit.New(time.Minute, 20000)
	var wg sync.WaitGroup
	var allowed, denied int64

	numGoroutines := 100
	requestsPerGoroutine := 1000

	start := time.Now()
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			addr := fmt.Sprintf("192.168.%d.%d", workerID/256, workerID%256)
			for j := 0; j < requestsPerGoroutine; j++ {
				if limiter.Allow(addr) {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&denied, 1)
				}
			}
		}(g)
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := int64(numGoroutines * requestsPerGoroutine)
	t.Logf("rate limiter stress: %d requests in %v (%.0f req/sec), allowed=%d denied=%d",
		total, elapsed, float64(total)/elapsed.Seconds(), allowed, denied)
}

// STRESS-003: memory stability across sustained create/destroy cycles.
func TestStressMemoryStability(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	baseline := m.HeapAlloc

	reg := room.NewRegistry(100000, time.Hour)
	for iter := 0; iter < 10; iter++ {
		rooms := make([]*room.Room, 0, 100)
		for i := 0; i < 100; i++ {
			r, err := reg.Create(newConn(fmt.Sprintf("10.5.%d.%d", iter, i)))
			if err != nil {
				continue
			}
			rooms = append(rooms, r)
		}
		for _, r := range rooms {
			r.Close()
		}
		runtime.GC()
	}

	runtime.GC()
	runtime.ReadMemStats(&m)
	growth := int64(m.HeapAlloc) - int64(baseline)
	t.Logf("heap growth after sustained load: %d KB", growth/1024)

	if growth > 50*1024*1024 {
		t.Errorf("possible leak: heap grew by %d MB", growth/1024/1024)
	}
	if reg.Count() != 0 {
		t.Errorf("expected empty registry, got %d rooms", reg.Count())
	}
}

// STRESS-004: maximum capacity.
func TestStressMaxCapacity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	const maxRooms = 2000
	reg := room.NewRegistry(maxRooms, time.Hour)

	var successCount, capacityErrors int64
	var wg sync.WaitGroup
	target := maxRooms + 200

	for i := 0; i < target; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := reg.Create(newConn(fmt.Sprintf("10.6.%d.%d", n/256, n%256)))
			if err == nil {
				atomic.AddInt64(&successCount, 1)
			} else if err == room.ErrTooManyRooms {
				atomic.AddInt64(&capacityErrors, 1)
			}
		}(i)
	}
	wg.Wait()

	t.Logf("max capacity test: %d successes, %d capacity errors", successCount, capacityErrors)

	if successCount != maxRooms {
		t.Errorf("expected exactly %d successful creations, got %d", maxRooms, successCount)
	}
	if capacityErrors < 200 {
		t.Errorf("expected at least 200 capacity errors, got %d", capacityErrors)
	}
}

// STRESS-005: goroutines return to baseline after sustained create/close.
func TestStressGoroutineExhaustion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	reg := room.NewRegistry(10000, time.Hour)
	initial := runtime.NumGoroutine()

	numRooms := 1000
	rooms := make([]*room.Room, 0, numRooms)
	for i := 0; i < numRooms; i++ {
		r, err := reg.Create(newConn(fmt.Sprintf("10.7.%d.%d", i/256, i%256)))
		if err != nil {
			break
		}
		rooms = append(rooms, r)
	}

	peak := runtime.NumGoroutine()
	t.Logf("initial goroutines: %d, peak: %d", initial, peak)

	for _, r := range rooms {
		r.Close()
	}

	time.Sleep(100 * time.Millisecond)
	runtime.GC()

	final := runtime.NumGoroutine()
	t.Logf("final goroutines: %d", final)

	if leak := final - initial; leak > 50 {
		t.Errorf("goroutine leak detected: %d not cleaned up", leak)
	}
	if reg.Count() != 0 {
		t.Errorf("expected empty registry, got %d rooms", reg.Count())
	}
}

// BenchmarkRoomCreate measures registry allocation cost.
func BenchmarkRoomCreate(b *testing.B) {
	reg := room.NewRegistry(b.N+1, time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Create(newConn(fmt.Sprintf("10.8.%d.%d", i/256, i%256)))
	}
}

// BenchmarkRateLimiterAllow measures the sliding-window admission check.
func BenchmarkRateLimiterAllow(b *testing.B) {
	limiter := ratelimit.New(time.Minute, 1000000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("192.168.1.1")
	}
}
