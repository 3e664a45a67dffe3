// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/studiosite/internal/notify"
)

// AlertStateResponse describes the alert listener.
type AlertStateResponse struct {
	Permission notify.Permission `json:"permission"`
	Subscribed bool              `json:"subscribed"`
	Recent     []notify.Alert    `json:"recent"`
}

func (h *Handler) alertState() AlertStateResponse {
	return AlertStateResponse{
		Permission: h.Alerts.Permission(),
		Subscribed: h.Alerts.Subscribed(),
		Recent:     h.Hub.Recent(),
	}
}

// AlertState handles GET /admin/api/alerts.
func (h *Handler) AlertState(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.alertState(), nil)
}

// EnableRequest carries the admin's answer to the permission prompt.
type EnableRequest struct {
	Decision notify.Permission `json:"decision"`
}

// EnableAlerts handles POST /admin/api/alerts/enable. The decision is only
// consulted while permission is still undecided.
func (h *Handler) EnableAlerts(w http.ResponseWriter, r *http.Request) {
	var req EnableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Decision != notify.PermissionGranted && req.Decision != notify.PermissionDenied {
		WriteValidationError(w, map[string]string{"decision": "must be granted or denied"})
		return
	}

	ctx := notify.WithDecision(r.Context(), req.Decision)
	if _, err := h.Alerts.Enable(ctx); err != nil {
		writeServiceError(w, r, err, "Alerts")
		return
	}
	WriteSuccess(w, h.alertState(), nil)
}

// RevokeAlerts handles POST /admin/api/alerts/revoke.
func (h *Handler) RevokeAlerts(w http.ResponseWriter, _ *http.Request) {
	h.Alerts.Revoke()
	WriteSuccess(w, h.alertState(), nil)
}

// ResetAlerts handles POST /admin/api/alerts/reset.
func (h *Handler) ResetAlerts(w http.ResponseWriter, _ *http.Request) {
	h.Alerts.Reset()
	WriteSuccess(w, h.alertState(), nil)
}

// AlertStream handles GET /admin/api/alerts/stream.
func (h *Handler) AlertStream(w http.ResponseWriter, r *http.Request) {
	alerts, cancel := h.Hub.Subscribe()
	defer cancel()

	stream, err := newEventStream(w)
	if err != nil {
		h.Logger.Warn("alert stream unavailable", "error", err)
		return
	}
	streamEvents(r.Context(), h.streamsDone, stream, "alert", alerts, func(a notify.Alert) any { return a })
}
