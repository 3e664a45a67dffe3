// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/olegiv/studiosite/internal/middleware"
	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/service"
	"github.com/olegiv/studiosite/internal/settings"
	"github.com/olegiv/studiosite/internal/util"
)

// SiteResponse is the public view of the site settings.
type SiteResponse struct {
	SiteName   string             `json:"siteName"`
	LogoURL    string             `json:"logoUrl"`
	FaviconURL string             `json:"faviconUrl,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	Address    string             `json:"address,omitempty"`
	Social     model.SocialLinks  `json:"social"`
	Analytics  model.AnalyticsIDs `json:"analytics"`
	Head       []settings.Link    `json:"head"`
	HeadHTML   string             `json:"headHtml"`
	UpdatedAt  time.Time          `json:"updatedAt,omitzero"`
}

// siteResponse reads the favicon from the head, which keeps the last
// published icon when the setting is cleared.
func (h *Handler) siteResponse(s model.SiteSettings) SiteResponse {
	head := h.Provider.Head()
	return SiteResponse{
		SiteName:   s.SiteName,
		LogoURL:    s.LogoURL,
		FaviconURL: head.Favicon(),
		Phone:      s.Phone,
		Address:    s.Address,
		Social:     s.Social,
		Analytics:  s.Analytics,
		Head:       head.Links(),
		HeadHTML:   head.HTML(),
		UpdatedAt:  s.UpdatedAt,
	}
}

// Site handles GET /api/v1/site.
func (h *Handler) Site(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.siteResponse(h.Provider.Current()), nil)
}

// SiteStream handles GET /api/v1/site/stream. The current settings are sent
// first, then one event per change.
func (h *Handler) SiteStream(w http.ResponseWriter, r *http.Request) {
	updates, cancel := h.Provider.Subscribe()
	defer cancel()

	stream, err := newEventStream(w)
	if err != nil {
		h.Logger.Warn("site stream unavailable", "error", err)
		return
	}
	streamEvents(r.Context(), h.streamsDone, stream, "settings", updates, func(s model.SiteSettings) any {
		return h.siteResponse(s)
	})
}

// PublicProduct is a catalog entry as shown to visitors.
type PublicProduct struct {
	model.Product
	DisplayPrice string `json:"displayPrice"`
}

// ListPublicProducts handles GET /api/v1/products.
func (h *Handler) ListPublicProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.ListPublic(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, err, "Product")
		return
	}

	out := make([]PublicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, PublicProduct{Product: p, DisplayPrice: util.FormatPrice(p.PriceCents)})
	}
	WriteSuccess(w, out, &Meta{Total: int64(len(out))})
}

// GetPublicProduct handles GET /api/v1/products/{id}. Archived products are
// not found.
func (h *Handler) GetPublicProduct(w http.ResponseWriter, r *http.Request) {
	view, err := h.Products.Get(r.Context(), idParam(r), false)
	if err != nil {
		writeServiceError(w, r, err, "Product")
		return
	}
	WriteSuccess(w, view, nil)
}

// ListReadySites handles GET /api/v1/ready-sites and its admin twin.
func (h *Handler) ListReadySites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.ReadySites.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Ready site")
		return
	}
	WriteSuccess(w, sites, &Meta{Total: int64(len(sites))})
}

// ToolView is a tool with its icon resolved to an asset.
type ToolView struct {
	model.Tool
	IconAsset *model.IconAsset `json:"iconAsset,omitempty"`
}

func toolView(t model.Tool) ToolView {
	v := ToolView{Tool: t}
	if a, ok := t.Icon.Asset(); ok {
		v.IconAsset = &a
	}
	return v
}

// ListTools handles GET /api/v1/tools and its admin twin.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.Tools.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, err, "Tool")
		return
	}
	out := make([]ToolView, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolView(t))
	}
	WriteSuccess(w, out, &Meta{Total: int64(len(out))})
}

// ListIcons handles GET /api/v1/icons.
func (h *Handler) ListIcons(w http.ResponseWriter, _ *http.Request) {
	icons := model.Icons()
	WriteSuccess(w, icons, &Meta{Total: int64(len(icons))})
}

// SubmissionResponse acknowledges a stored submission.
type SubmissionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderResponse acknowledges a stored order.
type OrderResponse struct {
	SubmissionResponse
	Summary model.OrderSummary `json:"summary"`
}

func (h *Handler) clientInfo(r *http.Request) *model.ClientInfo {
	if h.Visitors == nil {
		return nil
	}
	info := h.Visitors.Resolve(middleware.ClientIP(r), r.UserAgent())
	return &info
}

// SubmitContact handles POST /api/v1/contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var msg model.ContactMessage
	if !decodeJSON(w, r, &msg) {
		return
	}
	msg.Client = h.clientInfo(r)

	saved, err := h.Contacts.Submit(r.Context(), msg)
	if err != nil {
		writeServiceError(w, r, err, "Message")
		return
	}
	WriteCreated(w, SubmissionResponse{ID: saved.ID, CreatedAt: saved.CreatedAt})
}

// SubmitInquiry handles POST /api/v1/inquiries.
func (h *Handler) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var inq model.ProjectInquiry
	if !decodeJSON(w, r, &inq) {
		return
	}
	inq.Client = h.clientInfo(r)

	saved, err := h.Inquiries.Submit(r.Context(), inq)
	if err != nil {
		writeServiceError(w, r, err, "Inquiry")
		return
	}
	WriteCreated(w, SubmissionResponse{ID: saved.ID, CreatedAt: saved.CreatedAt})
}

// SubmitOrder handles POST /api/v1/orders.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req service.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Client = h.clientInfo(r)

	order, err := h.Orders.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "Order")
		return
	}
	WriteCreated(w, OrderResponse{
		SubmissionResponse: SubmissionResponse{ID: order.ID, CreatedAt: order.CreatedAt},
		Summary:            order.Summary(),
	})
}
