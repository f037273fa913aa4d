// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/instadash/internal/logging"
)

// ErrLockedOut is returned while a login key is locked.
var ErrLockedOut = errors.New("too many failed login attempts")

// LockoutConfig tunes login throttling.
type LockoutConfig struct {
	// MaxAttempts failed logins before a key is locked.
	MaxAttempts int

	// LockoutDuration is the first lockout period; each further lockout
	// doubles it up to MaxLockoutDuration.
	LockoutDuration    time.Duration
	MaxLockoutDuration time.Duration

	// TrackByIP also locks the client IP, which slows credential stuffing
	// across many emails.
	TrackByIP bool
}

// DefaultLockoutConfig returns 5 attempts, 15 minutes doubling up to 24 hours.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
		TrackByIP:          true,
	}
}

type lockoutEntry struct {
	failures    int
	lockouts    int
	lockedUntil time.Time
	lastAttempt time.Time
}

// Lockout counts failed logins per email and per client IP.
type Lockout struct {
	cfg     LockoutConfig
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

// NewLockout creates an in-memory lockout tracker.
func NewLockout(cfg LockoutConfig) *Lockout {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.MaxLockoutDuration < cfg.LockoutDuration {
		cfg.MaxLockoutDuration = cfg.LockoutDuration
	}
	return &Lockout{cfg: cfg, now: time.Now, entries: make(map[string]*lockoutEntry)}
}

func (l *Lockout) keys(email, ip string) []string {
	keys := []string{"email:" + strings.ToLower(email)}
	if l.cfg.TrackByIP && ip != "" {
		keys = append(keys, "ip:"+ip)
	}
	return keys
}

// Check returns an error wrapping ErrLockedOut when either key is locked.
func (l *Lockout) Check(email, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, k := range l.keys(email, ip) {
		if e, ok := l.entries[k]; ok && now.Before(e.lockedUntil) {
			return fmt.Errorf("%w: retry in %s", ErrLockedOut, e.lockedUntil.Sub(now).Round(time.Second))
		}
	}
	return nil
}

// Fail records a failed attempt and reports whether it caused a lockout.
func (l *Lockout) Fail(email, ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	locked := false
	for _, k := range l.keys(email, ip) {
		e, ok := l.entries[k]
		if !ok {
			e = &lockoutEntry{}
			l.entries[k] = e
		}
		e.failures++
		e.lastAttempt = now
		if e.failures < l.cfg.MaxAttempts {
			continue
		}
		d := l.cfg.LockoutDuration << e.lockouts
		if d > l.cfg.MaxLockoutDuration || d <= 0 {
			d = l.cfg.MaxLockoutDuration
		}
		e.lockedUntil = now.Add(d)
		e.lockouts++
		e.failures = 0
		locked = true
		logging.Warn().
			Str("key", logging.SanitizeValue(maskLockoutKey(k))).
			Dur("duration", d).
			Int("lockout_count", e.lockouts).
			Msg("Login locked")
	}
	return locked
}

// Succeed clears the email's failure history. The IP entry is kept so a
// successful login on one account does not reset a stuffing attempt.
func (l *Lockout) Succeed(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, "email:"+strings.ToLower(email))
}

// Prune drops entries idle for longer than the maximum lockout.
func (l *Lockout) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.MaxLockoutDuration)
	n := 0
	for k, e := range l.entries {
		if e.lastAttempt.Before(cutoff) && l.now().After(e.lockedUntil) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

func maskLockoutKey(k string) string {
	if email, ok := strings.CutPrefix(k, "email:"); ok {
		return "email:" + logging.SanitizeEmail(email)
	}
	return k
}
