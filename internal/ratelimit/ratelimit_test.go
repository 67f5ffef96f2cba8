package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	limiter := New(time.Minute, 20)

	addr := "192.168.1.1"

	for i := 0; i < 20; i++ {
		if !limiter.Allow(addr) {
			t.Errorf("admission %d should be allowed", i)
		}
	}

	if limiter.Allow(addr) {
		t.Error("admission past the cap should be rejected")
	}
}

func TestLimiterDifferentAddresses(t *testing.T) {
	limiter := New(time.Minute, 1)

	if !limiter.Allow("192.168.1.1") {
		t.Error("first admission from addr1 should be allowed")
	}
	if !limiter.Allow("192.168.1.2") {
		t.Error("first admission from addr2 should be allowed (distinct window)")
	}
	if limiter.Allow("192.168.1.1") {
		t.Error("second admission from addr1 should be rejected")
	}
}

func TestLimiterSlidesWithWindow(t *testing.T) {
	limiter := New(100*time.Millisecond, 1)

	addr := "192.168.1.1"
	if !limiter.Allow(addr) {
		t.Fatal("first admission should be allowed")
	}
	if limiter.Allow(addr) {
		t.Fatal("second admission within the window should be rejected")
	}

	time.Sleep(150 * time.Millisecond)

	if !limiter.Allow(addr) {
		t.Error("admission after the window slides past should be allowed")
	}
}

func TestLimiterPrunesOnlyExpiredEntries(t *testing.T) {
	limiter := New(80*time.Millisecond, 2)

	addr := "192.168.1.1"
	if !limiter.Allow(addr) {
		t.Fatal("admission 1 should be allowed")
	}
	time.Sleep(50 * time.Millisecond)
	if !limiter.Allow(addr) {
		t.Fatal("admission 2 should be allowed")
	}
	if limiter.Allow(addr) {
		t.Fatal("admission 3 should be rejected at the cap")
	}

	// admission 1 (now ~100ms old) expires out of the 80ms window, but
	// admission 2 (~50ms old) has not, so exactly one slot frees up.
	time.Sleep(50 * time.Millisecond)
	if !limiter.Allow(addr) {
		t.Error("admission should be allowed once the oldest entry expires")
	}
	if limiter.Allow(addr) {
		t.Error("a second admission in the same instant should still be rejected")
	}
}
