package ratelimit

import (
	"testing"
	"time"
)

func TestBurstIsPerKey(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Hour, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("u1") {
			t.Fatalf("request %d within burst was refused", i+1)
		}
	}
	if l.Allow("u1") {
		t.Fatal("request beyond burst was allowed")
	}
	if !l.Allow("u2") {
		t.Fatal("another user shares the exhausted bucket")
	}
}

func TestDisabledLimiter(t *testing.T) {
	l := NewInMemoryLimiter(0, time.Minute, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("u1") {
			t.Fatalf("request %d refused with limiting disabled", i+1)
		}
	}
}
