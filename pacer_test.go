package main

import (
	"testing"
	"time"
)

// fakeClock drives the pacer without real sleeping.
type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func newTestPacer(requestsPerMinute int) (*intervalPacer, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	p := NewPacer(requestsPerMinute)
	p.now = clock.now
	p.sleep = clock.sleep
	return p, clock
}

func TestPacerFirstCallDoesNotWait(t *testing.T) {
	p, clock := newTestPacer(10)
	p.Wait()
	if len(clock.slept) != 0 {
		t.Fatalf("first call slept: %v", clock.slept)
	}
}

func TestPacerSpacesConsecutiveCalls(t *testing.T) {
	p, clock := newTestPacer(10) // one call per 6s

	p.Wait()
	p.Wait()
	if len(clock.slept) != 1 || clock.slept[0] != 6*time.Second {
		t.Fatalf("got sleeps %v, want one 6s sleep", clock.slept)
	}
}

func TestPacerSkipsWaitAfterIdlePeriod(t *testing.T) {
	p, clock := newTestPacer(10)

	p.Wait()
	clock.t = clock.t.Add(10 * time.Second)
	p.Wait()
	if len(clock.slept) != 0 {
		t.Fatalf("slept after idle period: %v", clock.slept)
	}
}

func TestPacerPartialElapsedSleepsRemainder(t *testing.T) {
	p, clock := newTestPacer(10)

	p.Wait()
	clock.t = clock.t.Add(2 * time.Second)
	p.Wait()
	if len(clock.slept) != 1 || clock.slept[0] != 4*time.Second {
		t.Fatalf("got sleeps %v, want one 4s sleep", clock.slept)
	}
}

func TestPacerDisabledWithZeroRate(t *testing.T) {
	p, clock := newTestPacer(0)

	p.Wait()
	p.Wait()
	if len(clock.slept) != 0 {
		t.Fatalf("disabled pacer slept: %v", clock.slept)
	}
}
