// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testLoginProtection returns a protection with a controllable clock and a
// high IP limit.
func testLoginProtection(t *testing.T, maxAttempts int, lockout, window time.Duration) (*LoginProtection, *time.Time) {
	t.Helper()
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
	t.Cleanup(lp.Close)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }
	return lp, &now
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	defer lp.Close()

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
	if lp.attemptWindow != 15*time.Minute {
		t.Errorf("attemptWindow = %v, want 15m (default)", lp.attemptWindow)
	}
	lp.Close()
}

func TestLoginProtectionLockout(t *testing.T) {
	lp, now := testLoginProtection(t, 3, time.Minute, 10*time.Minute)
	email := "owner@example.com"

	for i := 1; i <= 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("attempt %d locked the account", i)
		}
	}
	if got := lp.GetRemainingAttempts(email); got != 1 {
		t.Errorf("GetRemainingAttempts() = %d, want 1", got)
	}

	locked, d := lp.RecordFailedAttempt(email)
	if !locked || d != time.Minute {
		t.Fatalf("third attempt = (%v, %v), want (true, 1m)", locked, d)
	}

	locked, remaining := lp.IsAccountLocked(email)
	if !locked || remaining != time.Minute {
		t.Errorf("IsAccountLocked() = (%v, %v)", locked, remaining)
	}

	*now = now.Add(time.Minute + time.Second)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("account still locked after the lockout expired")
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp, now := testLoginProtection(t, 2, time.Minute, time.Hour)
	email := "owner@example.com"

	var durations []time.Duration
	for range 3 {
		lp.RecordFailedAttempt(email)
		_, d := lp.RecordFailedAttempt(email)
		durations = append(durations, d)
		*now = now.Add(d + time.Second)
	}

	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute}
	for i := range want {
		if durations[i] != want[i] {
			t.Errorf("lockout %d = %v, want %v", i+1, durations[i], want[i])
		}
	}
}

func TestLoginProtectionBackoffCap(t *testing.T) {
	lp, _ := testLoginProtection(t, 1, 10*time.Hour, time.Hour)
	email := "owner@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	_, d := lp.RecordFailedAttempt(email)
	if d != maxLockout {
		t.Errorf("lockout = %v, want cap %v", d, maxLockout)
	}
}

func TestLoginProtectionAttemptWindowReset(t *testing.T) {
	lp, now := testLoginProtection(t, 3, time.Minute, time.Minute)
	email := "owner@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)

	*now = now.Add(2 * time.Minute)
	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("GetRemainingAttempts() after window = %d, want 3", got)
	}
	if locked, _ := lp.RecordFailedAttempt(email); locked {
		t.Error("attempt after window reset locked the account")
	}
	if got := lp.GetRemainingAttempts(email); got != 2 {
		t.Errorf("GetRemainingAttempts() = %d, want 2", got)
	}
}

func TestLoginProtectionRecordSuccessfulLogin(t *testing.T) {
	lp, _ := testLoginProtection(t, 3, time.Minute, time.Minute)
	email := "owner@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)

	if got := lp.GetRemainingAttempts(email); got != 3 {
		t.Errorf("GetRemainingAttempts() = %d, want 3", got)
	}
}

func TestLoginProtectionCleanupStaleEntries(t *testing.T) {
	lp, now := testLoginProtection(t, 3, time.Minute, time.Minute)

	lp.RecordFailedAttempt("stale@example.com")
	*now = now.Add(5 * time.Minute)
	lp.RecordFailedAttempt("recent@example.com")

	lp.cleanupStaleEntries()

	lp.attemptsMu.RLock()
	defer lp.attemptsMu.RUnlock()
	if _, ok := lp.failedAttempts["stale@example.com"]; ok {
		t.Error("stale entry not removed")
	}
	if _, ok := lp.failedAttempts["recent@example.com"]; !ok {
		t.Error("recent entry removed")
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	defer lp.Close()

	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method, addr string) int {
		req := httptest.NewRequest(method, "/admin/api/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := range 2 {
		if code := send(http.MethodPost, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := send(http.MethodPost, "10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("request over burst = %d, want 429", code)
	}
	if code := send(http.MethodGet, "10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("GET = %d, want 200 (not limited)", code)
	}
	if code := send(http.MethodPost, "10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("other IP = %d, want 200", code)
	}
}
