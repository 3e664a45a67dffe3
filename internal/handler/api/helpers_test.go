// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/studiosite/internal/auth"
	"github.com/olegiv/studiosite/internal/imagehost"
	"github.com/olegiv/studiosite/internal/imaging"
	"github.com/olegiv/studiosite/internal/middleware"
	"github.com/olegiv/studiosite/internal/notify"
	"github.com/olegiv/studiosite/internal/service"
	"github.com/olegiv/studiosite/internal/settings"
	"github.com/olegiv/studiosite/internal/store"
	"github.com/olegiv/studiosite/internal/testutil"
	"github.com/olegiv/studiosite/internal/version"
	"github.com/olegiv/studiosite/internal/visitor"
)

const (
	testAdminEmail    = "owner@studio.example"
	testAdminPassword = "correct-horse-battery"
	testJWTSecret     = "test-secret-that-is-at-least-32-bytes"
)

var testCSRFKey = []byte("12345678901234567890123456789012")

// testServer is a fully wired API over a temporary database.
type testServer struct {
	handler *Handler
	router  http.Handler
	docs    *store.Documents
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := testutil.TestLoggerSilent()
	db := testutil.TestDB(t)
	docs := store.NewDocuments(db, store.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin, err := auth.NewAdmin(testAdminEmail, hash, auth.NewJWTManager(testJWTSecret, "studiosite", time.Hour))
	if err != nil {
		t.Fatalf("NewAdmin: %v", err)
	}

	provider := settings.NewProvider(docs, nil, logger)
	if err := provider.Start(ctx); err != nil {
		t.Fatalf("provider.Start: %v", err)
	}
	t.Cleanup(provider.Stop)
	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	if err := provider.WaitLoaded(waitCtx); err != nil {
		t.Fatalf("WaitLoaded: %v", err)
	}

	hub := notify.NewHub()
	listener := notify.NewListener(docs, hub, notify.WithLogger(logger))
	if err := listener.Start(ctx); err != nil {
		t.Fatalf("listener.Start: %v", err)
	}
	t.Cleanup(listener.Stop)

	backend, err := imagehost.NewLocalBackend(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}

	logins := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	t.Cleanup(logins.Close)

	h := NewHandler(Deps{
		DB:         db,
		Contacts:   service.NewContactService(docs, nil, logger),
		Inquiries:  service.NewInquiryService(docs, nil, logger),
		Orders:     service.NewOrderService(docs, logger),
		Products:   service.NewProductService(docs, logger),
		ReadySites: service.NewReadySiteService(docs),
		Tools:      service.NewToolService(docs),
		Settings:   service.NewSettingsService(docs, logger),
		Events:     service.NewEventService(docs),
		Provider:   provider,
		Alerts:     listener,
		Hub:        hub,
		Images:     imagehost.NewUploader(backend, imaging.NewProcessor(1600), logger),
		Visitors:   visitor.NewResolver(nil),
		Admin:      admin,
		Logins:     logins,
		Version:    version.Info{Version: "v1.0.0-test", GitCommit: "abc1234"},
		Logger:     logger,
	})

	router := h.Router(RouterConfig{
		Security:      middleware.DefaultSecurityHeadersConfig(true),
		CSRF:          middleware.DefaultCSRFConfig(testCSRFKey, nil, false),
		PublicLimiter: middleware.NewRateLimiter(1000, 1000),
	})

	token, _, err := admin.Login(testAdminEmail, testAdminPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	return &testServer{handler: h, router: router, docs: docs, token: token}
}

// do sends a JSON request. A non-nil body is encoded as JSON.
func (s *testServer) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "http://studio.example.com"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15")
	if admin {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// assertStatusCode checks that the response has the expected status code.
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, w.Code, w.Body.String())
	}
}

// assertErrorResponse unmarshals and validates an error response.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != expectedCode {
		t.Errorf("expected code '%s', got %s", expectedCode, resp.Error.Code)
	}
	return resp
}

// decodeData unmarshals the data member of a success envelope into v.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) *Meta {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	return resp.Meta
}
