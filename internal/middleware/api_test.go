// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteAPIError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, http.StatusUnprocessableEntity, "validation_error", "Validation failed", map[string]string{"email": "is required"})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body APIError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" || body.Error.Details["email"] != "is required" {
		t.Errorf("body = %+v", body)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 3)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := range 3 {
		if rr := send("198.51.100.7:1000"); rr.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i+1, rr.Code)
		}
	}

	rr := send("198.51.100.7:2000")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit = %d, want 429", rr.Code)
	}
	var body APIError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body.Error.Code != "rate_limit_exceeded" {
		t.Errorf("body = %+v, err = %v", body, err)
	}

	if rr := send("198.51.100.8:1000"); rr.Code != http.StatusCreated {
		t.Errorf("other IP = %d, want 201", rr.Code)
	}
}

func TestLimiterCacheClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	for _, k := range []string{"a", "b", "c"} {
		lc.get(k)
	}

	if lc.clearIfExceeds(5) {
		t.Error("cleared below the limit")
	}
	if !lc.clearIfExceeds(2) {
		t.Error("not cleared above the limit")
	}
	if lc.size() != 0 {
		t.Errorf("size = %d after clear", lc.size())
	}
}
