// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/studiosite/internal/auth"
	"github.com/olegiv/studiosite/internal/imagehost"
	"github.com/olegiv/studiosite/internal/logging"
	"github.com/olegiv/studiosite/internal/middleware"
	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/service"
)

// LoginRequest is the body of POST /admin/api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /admin/api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"email": "required", "password": "required"})
		return
	}

	ip := middleware.ClientIP(r)
	if h.Logins != nil {
		if locked, remaining := h.Logins.IsAccountLocked(req.Email); locked {
			writeLocked(w, remaining)
			return
		}
	}

	token, expires, err := h.Admin.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Logger.Warn("admin login failed", "ip", ip, "category", model.EventCategoryAuth)
		if h.Logins != nil {
			if locked, lockout := h.Logins.RecordFailedAttempt(req.Email); locked {
				h.audit(r, func(ctx context.Context) error {
					return h.Events.LogWarning(ctx, model.EventCategoryAuth, "Admin account locked",
						map[string]any{"ip": ip, "lockout": lockout.Round(time.Second).String()})
				})
				writeLocked(w, lockout)
				return
			}
		}
		WriteUnauthorized(w, "Invalid email or password")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "Session")
		return
	}

	if h.Logins != nil {
		h.Logins.RecordSuccessfulLogin(req.Email)
	}
	h.Logger.Info("admin logged in", "ip", ip, "category", model.EventCategoryAuth)
	h.audit(r, func(ctx context.Context) error {
		return h.Events.LogInfo(ctx, model.EventCategoryAuth, "Admin logged in", map[string]any{"ip": ip})
	})
	WriteSuccess(w, LoginResponse{Token: token, ExpiresAt: expires}, nil)
}

// audit records an event log entry. Failures are logged and otherwise ignored.
func (h *Handler) audit(r *http.Request, write func(context.Context) error) {
	if h.Events == nil {
		return
	}
	if err := write(r.Context()); err != nil {
		h.Logger.ErrorContext(logging.WithoutEventLog(r.Context()), "failed to write audit event", "error", err)
	}
}

func writeLocked(w http.ResponseWriter, remaining time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())+1))
	WriteError(w, http.StatusTooManyRequests, "account_locked",
		fmt.Sprintf("Too many failed attempts. Try again in %s.", remaining.Round(time.Second)), nil)
}

// listPage serves a paginated admin list.
func listPage[T any](w http.ResponseWriter, r *http.Request, entity string, list func(context.Context, service.ListOptions) ([]T, int64, error)) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}
	items, total, err := list(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err, entity)
		return
	}
	if items == nil {
		items = []T{}
	}
	WriteSuccess(w, items, listMeta(total, opts))
}

func getOne[T any](w http.ResponseWriter, r *http.Request, entity string, get func(context.Context, string) (T, error)) {
	item, err := get(r.Context(), idParam(r))
	if err != nil {
		writeServiceError(w, r, err, entity)
		return
	}
	WriteSuccess(w, item, nil)
}

func deleteOne(w http.ResponseWriter, r *http.Request, entity string, del func(context.Context, string) error) {
	if err := del(r.Context(), idParam(r)); err != nil {
		writeServiceError(w, r, err, entity)
		return
	}
	WriteNoContent(w)
}

// StatusRequest is the body of a PATCH status change.
type StatusRequest[S ~string] struct {
	Status S `json:"status"`
}

func updateStatus[S ~string, T any](w http.ResponseWriter, r *http.Request, entity string, update func(context.Context, string, S) (T, error)) {
	var req StatusRequest[S]
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := update(r.Context(), idParam(r), req.Status)
	if err != nil {
		writeServiceError(w, r, err, entity)
		return
	}
	WriteSuccess(w, item, nil)
}

// ListMessages handles GET /admin/api/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, "Message", h.Contacts.List)
}

// GetMessage handles GET /admin/api/messages/{id}.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, "Message", h.Contacts.Get)
}

// UpdateMessageStatus handles PATCH /admin/api/messages/{id}.
func (h *Handler) UpdateMessageStatus(w http.ResponseWriter, r *http.Request) {
	updateStatus(w, r, "Message", h.Contacts.UpdateStatus)
}

// DeleteMessage handles DELETE /admin/api/messages/{id}.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	deleteOne(w, r, "Message", h.Contacts.Delete)
}

// ListInquiries handles GET /admin/api/inquiries.
func (h *Handler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, "Inquiry", h.Inquiries.List)
}

// GetInquiry handles GET /admin/api/inquiries/{id}.
func (h *Handler) GetInquiry(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, "Inquiry", h.Inquiries.Get)
}

// UpdateInquiryStatus handles PATCH /admin/api/inquiries/{id}.
func (h *Handler) UpdateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	updateStatus(w, r, "Inquiry", h.Inquiries.UpdateStatus)
}

// DeleteInquiry handles DELETE /admin/api/inquiries/{id}.
func (h *Handler) DeleteInquiry(w http.ResponseWriter, r *http.Request) {
	deleteOne(w, r, "Inquiry", h.Inquiries.Delete)
}

// ListOrders handles GET /admin/api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	listPage(w, r, "Order", h.Orders.List)
}

// GetOrder handles GET /admin/api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, "Order", h.Orders.Get)
}

// UpdateOrderStatus handles PATCH /admin/api/orders/{id}.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	updateStatus(w, r, "Order", h.Orders.UpdateStatus)
}

// DeleteOrder handles DELETE /admin/api/orders/{id}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	deleteOne(w, r, "Order", h.Orders.Delete)
}

// ListProducts handles GET /admin/api/products, archived products included.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Product")
		return
	}
	WriteSuccess(w, products, &Meta{Total: int64(len(products))})
}

// GetProduct handles GET /admin/api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	view, err := h.Products.Get(r.Context(), idParam(r), true)
	if err != nil {
		writeServiceError(w, r, err, "Product")
		return
	}
	WriteSuccess(w, view, nil)
}

// CreateProduct handles POST /admin/api/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	created, err := h.Products.Create(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err, "Product")
		return
	}
	WriteCreated(w, created)
}

// UpdateProduct handles PUT /admin/api/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch service.ProductPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.Products.Update(r.Context(), idParam(r), patch)
	if err != nil {
		writeServiceError(w, r, err, "Product")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteProduct handles DELETE /admin/api/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	deleteOne(w, r, "Product", h.Products.Delete)
}

// GetReadySite handles GET /admin/api/ready-sites/{id}.
func (h *Handler) GetReadySite(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, "Ready site", h.ReadySites.Get)
}

// CreateReadySite handles POST /admin/api/ready-sites.
func (h *Handler) CreateReadySite(w http.ResponseWriter, r *http.Request) {
	var site model.ReadySite
	if !decodeJSON(w, r, &site) {
		return
	}
	created, err := h.ReadySites.Create(r.Context(), site)
	if err != nil {
		writeServiceError(w, r, err, "Ready site")
		return
	}
	WriteCreated(w, created)
}

// UpdateReadySite handles PUT /admin/api/ready-sites/{id}.
func (h *Handler) UpdateReadySite(w http.ResponseWriter, r *http.Request) {
	var patch service.ReadySitePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.ReadySites.Update(r.Context(), idParam(r), patch)
	if err != nil {
		writeServiceError(w, r, err, "Ready site")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteReadySite handles DELETE /admin/api/ready-sites/{id}.
func (h *Handler) DeleteReadySite(w http.ResponseWriter, r *http.Request) {
	deleteOne(w, r, "Ready site", h.ReadySites.Delete)
}

// GetTool handles GET /admin/api/tools/{id}.
func (h *Handler) GetTool(w http.ResponseWriter, r *http.Request) {
	getOne(w, r, "Tool", func(ctx context.Context, id string) (ToolView, error) {
		t, err := h.Tools.Get(ctx, id)
		return toolView(t), err
	})
}

// CreateTool handles POST /admin/api/tools.
func (h *Handler) CreateTool(w http.ResponseWriter, r *http.Request) {
	var tool model.Tool
	if !decodeJSON(w, r, &tool) {
		return
	}
	created, err := h.Tools.Create(r.Context(), tool)
	if err != nil {
		writeServiceError(w, r, err, "Tool")
		return
	}
	WriteCreated(w, created)
}

// UpdateTool handles PUT /admin/api/tools/{id}.
func (h *Handler) UpdateTool(w http.ResponseWriter, r *http.Request) {
	var patch service.ToolPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.Tools.Update(r.Context(), idParam(r), patch)
	if err != nil {
		writeServiceError(w, r, err, "Tool")
		return
	}
	WriteSuccess(w, updated, nil)
}

// DeleteTool handles DELETE /admin/api/tools/{id}.
func (h *Handler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	deleteOne(w, r, "Tool", h.Tools.Delete)
}

// GetSettings handles GET /admin/api/settings. It reads the store rather
// than the provider so the form always starts from the saved document.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Settings")
		return
	}
	WriteSuccess(w, s, nil)
}

// UpdateSettings handles PUT /admin/api/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch service.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s, err := h.Settings.Update(r.Context(), patch)
	if err != nil {
		writeServiceError(w, r, err, "Settings")
		return
	}
	WriteSuccess(w, s, nil)
}

// ImageResponse is the public address of an uploaded image.
type ImageResponse struct {
	URL string `json:"url"`
}

// UploadImage handles POST /admin/api/images (multipart field "file").
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imagehost.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imagehost.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, imagehost.ErrTooLarge, "Image")
			return
		}
		WriteBadRequest(w, "Expected a multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, map[string]string{"file": "required"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, imagehost.MaxUploadSize+1))
	if err != nil {
		WriteBadRequest(w, "Could not read the uploaded file", nil)
		return
	}

	url, err := h.Images.Upload(r.Context(), header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, r, err, "Image")
		return
	}
	WriteCreated(w, ImageResponse{URL: url})
}

// ListEvents handles GET /admin/api/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	// Reading the log must not write to it.
	r = r.WithContext(logging.WithoutEventLog(r.Context()))
	listPage(w, r, "Event", h.Events.List)
}
