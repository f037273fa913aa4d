// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLockout(cfg LockoutConfig) (*Lockout, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLockout(cfg)
	l.now = clock.now
	return l, clock
}

func TestLockout_LocksAfterMaxAttempts(t *testing.T) {
	l, clock := newTestLockout(LockoutConfig{MaxAttempts: 3, LockoutDuration: time.Minute, MaxLockoutDuration: time.Hour})

	for i := 0; i < 2; i++ {
		if l.Fail("a@example.com", "") {
			t.Fatalf("Fail() #%d locked early", i+1)
		}
	}
	if err := l.Check("a@example.com", ""); err != nil {
		t.Fatalf("Check() before lockout = %v", err)
	}
	if !l.Fail("A@example.com", "") {
		t.Fatal("third Fail() did not lock")
	}
	if err := l.Check("a@example.com", ""); !errors.Is(err, ErrLockedOut) {
		t.Errorf("Check() = %v, want ErrLockedOut", err)
	}
	if err := l.Check("b@example.com", ""); err != nil {
		t.Errorf("Check(other email) = %v, want nil", err)
	}

	clock.advance(time.Minute + time.Second)
	if err := l.Check("a@example.com", ""); err != nil {
		t.Errorf("Check() after expiry = %v, want nil", err)
	}
}

func TestLockout_ExponentialBackoff(t *testing.T) {
	l, clock := newTestLockout(LockoutConfig{MaxAttempts: 1, LockoutDuration: time.Minute, MaxLockoutDuration: 3 * time.Minute})

	for _, want := range []time.Duration{time.Minute, 2 * time.Minute, 3 * time.Minute, 3 * time.Minute} {
		l.Fail("a@example.com", "")
		clock.advance(want - time.Second)
		if err := l.Check("a@example.com", ""); err == nil {
			t.Fatalf("lockout of %v ended early", want)
		}
		clock.advance(2 * time.Second)
		if err := l.Check("a@example.com", ""); err != nil {
			t.Fatalf("lockout of %v still active: %v", want, err)
		}
	}
}

func TestLockout_TrackByIP(t *testing.T) {
	l, _ := newTestLockout(LockoutConfig{MaxAttempts: 2, LockoutDuration: time.Minute, TrackByIP: true})

	l.Fail("a@example.com", "10.0.0.1")
	l.Fail("b@example.com", "10.0.0.1")
	if err := l.Check("c@example.com", "10.0.0.1"); !errors.Is(err, ErrLockedOut) {
		t.Errorf("Check(new email, same ip) = %v, want ErrLockedOut", err)
	}
	if err := l.Check("c@example.com", "10.0.0.2"); err != nil {
		t.Errorf("Check(other ip) = %v, want nil", err)
	}
}

func TestLockout_SucceedResetsEmail(t *testing.T) {
	l, _ := newTestLockout(LockoutConfig{MaxAttempts: 2, LockoutDuration: time.Minute})
	l.Fail("a@example.com", "")
	l.Succeed("a@example.com")
	if l.Fail("a@example.com", "") {
		t.Error("Fail() after Succeed() locked, want counter reset")
	}
}

func TestLockout_Prune(t *testing.T) {
	l, clock := newTestLockout(LockoutConfig{MaxAttempts: 5, LockoutDuration: time.Minute, MaxLockoutDuration: time.Hour})
	l.Fail("a@example.com", "")
	if n := l.Prune(); n != 0 {
		t.Errorf("Prune() fresh = %d, want 0", n)
	}
	clock.advance(2 * time.Hour)
	if n := l.Prune(); n != 1 {
		t.Errorf("Prune() stale = %d, want 1", n)
	}
}
