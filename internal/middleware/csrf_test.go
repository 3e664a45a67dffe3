// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, []string{"https://www.example.com", "shop.example.com/", " "}, false)

	want := []string{"www.example.com", "shop.example.com"}
	if !slices.Equal(cfg.TrustedOrigins, want) {
		t.Errorf("TrustedOrigins = %v, want %v", cfg.TrustedOrigins, want)
	}

	dev := DefaultCSRFConfig(testCSRFKey, nil, true)
	if !slices.Contains(dev.TrustedOrigins, "localhost:8080") {
		t.Errorf("dev TrustedOrigins = %v, want localhost:8080", dev.TrustedOrigins)
	}
}

func TestOriginHost(t *testing.T) {
	tests := map[string]string{
		"https://example.com":      "example.com",
		"http://localhost:5173/":   "localhost:5173",
		"example.com":              "example.com",
		"https://example.com/path": "example.com",
	}
	for in, want := range tests {
		if got := originHost(in); got != want {
			t.Errorf("originHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCSRF(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testCSRFKey, []string{"https://partner.example.org"}, false))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"same origin", http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusCreated},
		{"non-browser client", http.MethodPost, nil, http.StatusCreated},
		{"cross site", http.MethodPost, map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://evil.example.net"}, http.StatusForbidden},
		{"safe method cross site", http.MethodGet, map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://evil.example.net"}, http.StatusCreated},
		{"trusted origin", http.MethodPost, map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://partner.example.org"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://studio.example.com/api/v1/contact", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestSkipCSRF(t *testing.T) {
	handler := SkipCSRF("/admin/api/login")(
		CSRF(DefaultCSRFConfig(testCSRFKey, nil, false))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, "http://studio.example.com"+path, nil)
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		req.Header.Set("Origin", "https://admin.example.net")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("/admin/api/login"); code != http.StatusOK {
		t.Errorf("skipped path = %d, want 200", code)
	}
	if code := send("/api/v1/orders"); code != http.StatusForbidden {
		t.Errorf("protected path = %d, want 403", code)
	}
}
