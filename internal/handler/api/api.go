// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the public and admin JSON API of the studio site.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/studiosite/internal/auth"
	"github.com/olegiv/studiosite/internal/imagehost"
	"github.com/olegiv/studiosite/internal/middleware"
	"github.com/olegiv/studiosite/internal/notify"
	"github.com/olegiv/studiosite/internal/service"
	"github.com/olegiv/studiosite/internal/settings"
	"github.com/olegiv/studiosite/internal/store"
	"github.com/olegiv/studiosite/internal/version"
	"github.com/olegiv/studiosite/internal/visitor"
)

// Deps are the collaborators the handlers use.
type Deps struct {
	DB *store.DB

	Contacts   *service.ContactService
	Inquiries  *service.InquiryService
	Orders     *service.OrderService
	Products   *service.ProductService
	ReadySites *service.ReadySiteService
	Tools      *service.ToolService
	Settings   *service.SettingsService
	Events     *service.EventService

	Provider *settings.Provider
	Alerts   *notify.Listener
	Hub      *notify.Hub
	Images   *imagehost.Uploader
	Visitors *visitor.Resolver
	Admin    *auth.Admin
	Logins   *middleware.LoginProtection

	Version version.Info
	Logger  *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	Deps
	startTime time.Time

	streamsDone chan struct{}
	closeOnce   sync.Once
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{Deps: deps, startTime: time.Now(), streamsDone: make(chan struct{})}
}

// CloseStreams ends every open event stream. Register it with
// http.Server.RegisterOnShutdown so graceful shutdown is not held open.
func (h *Handler) CloseStreams() {
	h.closeOnce.Do(func() { close(h.streamsDone) })
}

// RouterConfig holds the HTTP hardening settings.
type RouterConfig struct {
	Security       middleware.SecurityHeadersConfig
	CSRF           middleware.CSRFConfig
	PublicLimiter  *middleware.RateLimiter
	RequestTimeout time.Duration

	// UploadsDir is served at UploadsURL when images are stored locally.
	UploadsDir string
	UploadsURL string
}

// Router builds the HTTP routes.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.PublicLimiter == nil {
		cfg.PublicLimiter = middleware.NewRateLimiter(1, 5)
	}
	timeout := middleware.Timeout(cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(cfg.Security))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	r.With(timeout).Get("/health", h.Health)

	if cfg.UploadsDir != "" {
		prefix := strings.TrimSuffix(cfg.UploadsURL, "/") + "/"
		uploads := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle(prefix+"*", cacheControl("public, max-age=604800", uploads))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Streams outlive the request timeout.
		r.Get("/site/stream", h.SiteStream)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/status", h.Status)
			r.Get("/site", h.Site)
			r.Get("/products", h.ListPublicProducts)
			r.Get("/products/{id}", h.GetPublicProduct)
			r.Get("/ready-sites", h.ListReadySites)
			r.Get("/tools", h.ListTools)
			r.Get("/icons", h.ListIcons)

			r.Group(func(r chi.Router) {
				r.Use(middleware.CSRF(cfg.CSRF))
				r.Use(cfg.PublicLimiter.Middleware())
				r.Post("/contact", h.SubmitContact)
				r.Post("/inquiries", h.SubmitInquiry)
				r.Post("/orders", h.SubmitOrder)
			})
		})
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(timeout)
			if h.Logins != nil {
				r.Use(h.Logins.Middleware())
			}
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.Admin))

			r.Get("/alerts/stream", h.AlertStream)

			r.Group(func(r chi.Router) {
				r.Use(timeout)

				r.Get("/messages", h.ListMessages)
				r.Get("/messages/{id}", h.GetMessage)
				r.Patch("/messages/{id}", h.UpdateMessageStatus)
				r.Delete("/messages/{id}", h.DeleteMessage)

				r.Get("/inquiries", h.ListInquiries)
				r.Get("/inquiries/{id}", h.GetInquiry)
				r.Patch("/inquiries/{id}", h.UpdateInquiryStatus)
				r.Delete("/inquiries/{id}", h.DeleteInquiry)

				r.Get("/orders", h.ListOrders)
				r.Get("/orders/{id}", h.GetOrder)
				r.Patch("/orders/{id}", h.UpdateOrderStatus)
				r.Delete("/orders/{id}", h.DeleteOrder)

				r.Get("/products", h.ListProducts)
				r.Post("/products", h.CreateProduct)
				r.Get("/products/{id}", h.GetProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)

				r.Get("/ready-sites", h.ListReadySites)
				r.Post("/ready-sites", h.CreateReadySite)
				r.Get("/ready-sites/{id}", h.GetReadySite)
				r.Put("/ready-sites/{id}", h.UpdateReadySite)
				r.Delete("/ready-sites/{id}", h.DeleteReadySite)

				r.Get("/tools", h.ListTools)
				r.Post("/tools", h.CreateTool)
				r.Get("/tools/{id}", h.GetTool)
				r.Put("/tools/{id}", h.UpdateTool)
				r.Delete("/tools/{id}", h.DeleteTool)

				r.Get("/settings", h.GetSettings)
				r.Put("/settings", h.UpdateSettings)

				r.Post("/images", h.UploadImage)

				r.Get("/alerts", h.AlertState)
				r.Post("/alerts/enable", h.EnableAlerts)
				r.Post("/alerts/revoke", h.RevokeAlerts)
				r.Post("/alerts/reset", h.ResetAlerts)

				r.Get("/events", h.ListEvents)
			})
		})
	})

	return r
}

func cacheControl(value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}
