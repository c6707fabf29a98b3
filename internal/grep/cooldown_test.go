package grep

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCooldownShouldNotify(t *testing.T) {
	const interval = 5 * time.Minute

	tests := []struct {
		name   string
		record bool
		user   int64
		chat   int64
		at     time.Time
		want   bool
	}{
		{name: "no entry", record: false, user: 7, chat: 100, at: t0, want: true},
		{name: "same instant", record: true, user: 7, chat: 100, at: t0, want: false},
		{name: "half interval", record: true, user: 7, chat: 100, at: t0.Add(interval / 2), want: false},
		{name: "exactly interval", record: true, user: 7, chat: 100, at: t0.Add(interval), want: false},
		{name: "just past interval", record: true, user: 7, chat: 100, at: t0.Add(interval + time.Second), want: true},
		{name: "other chat", record: true, user: 7, chat: 200, at: t0.Add(time.Second), want: true},
		{name: "other user", record: true, user: 8, chat: 100, at: t0.Add(time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCooldown(interval, 0)
			if tt.record {
				c.Record(7, 100, t0)
			}
			got := c.ShouldNotify(tt.user, tt.chat, tt.at)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ShouldNotify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCooldownRecordOverwrites(t *testing.T) {
	c := NewCooldown(time.Minute, 0)
	c.Record(1, 1, t0)
	c.Record(1, 1, t0.Add(50*time.Second))

	if diff := cmp.Diff(1, c.Len()); diff != "" {
		t.Errorf("Len() mismatch (-want +got):\n%s", diff)
	}
	if c.ShouldNotify(1, 1, t0.Add(90*time.Second)) {
		t.Error("expected suppression relative to the latest record")
	}
	if !c.ShouldNotify(1, 1, t0.Add(111*time.Second)) {
		t.Error("expected notify once the latest record is older than the interval")
	}
}

func TestCooldownAcquire(t *testing.T) {
	c := NewCooldown(time.Minute, 0)

	if !c.Acquire(1, 10, t0) {
		t.Fatal("first acquire should succeed")
	}
	if c.Acquire(1, 10, t0.Add(30*time.Second)) {
		t.Error("acquire within interval should fail")
	}
	// A failed acquire must not move the window.
	if !c.Acquire(1, 10, t0.Add(61*time.Second)) {
		t.Error("acquire after interval should succeed")
	}
}

func TestCooldownAcquireConcurrent(t *testing.T) {
	c := NewCooldown(time.Minute, 0)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Acquire(3, 30, t0) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if diff := cmp.Diff(int32(1), wins.Load()); diff != "" {
		t.Errorf("winners mismatch (-want +got):\n%s", diff)
	}
}

func TestCooldownInterval(t *testing.T) {
	c := NewCooldown(DefaultCooldown, time.Minute)
	if diff := cmp.Diff(5*time.Minute, c.Interval()); diff != "" {
		t.Errorf("Interval() mismatch (-want +got):\n%s", diff)
	}
}

func TestCooldownIgnoresWallClock(t *testing.T) {
	const interval = 50 * time.Millisecond
	c := NewCooldown(interval, 0)
	c.Record(1, 1, t0)

	time.Sleep(2 * interval)

	if c.ShouldNotify(1, 1, t0.Add(interval/2)) {
		t.Error("ShouldNotify() = true inside the interval")
	}
	if c.Acquire(1, 1, t0.Add(interval/2)) {
		t.Error("Acquire() = true inside the interval")
	}
	if !c.Acquire(1, 1, t0.Add(2*interval)) {
		t.Error("Acquire() = false past the interval")
	}
}

func TestCooldownSweep(t *testing.T) {
	c := NewCooldown(time.Minute, 0)
	c.Record(1, 100, t0)
	c.Record(2, 100, t0.Add(30*time.Second))
	c.Record(3, 100, t0.Add(90*time.Second))

	removed := c.Sweep(t0.Add(100 * time.Second))

	if diff := cmp.Diff(2, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, c.Len()); diff != "" {
		t.Errorf("Len() mismatch (-want +got):\n%s", diff)
	}
	if c.ShouldNotify(3, 100, t0.Add(100*time.Second)) {
		t.Error("fresh entry was swept")
	}
}

func TestCooldownRun(t *testing.T) {
	c := NewCooldown(time.Millisecond, 5*time.Millisecond)
	c.Record(1, 100, time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stale entry was not swept")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCooldownRunWithoutSweep(t *testing.T) {
	c := NewCooldown(time.Minute, 0)
	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run without a sweep period should return immediately")
	}
}
