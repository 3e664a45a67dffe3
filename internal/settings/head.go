// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package settings

import (
	"html"
	"strings"
	"sync"
)

// RelIcon is the rel value of the favicon link.
const RelIcon = "icon"

// Link is a <link> element of the shared document head.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Head holds the link elements every page renders in its <head>.
type Head struct {
	mu    sync.RWMutex
	links []Link
}

// NewHead returns an empty head.
func NewHead() *Head {
	return &Head{}
}

// SetFavicon points the single rel="icon" link at href, creating it if
// needed. Calling it again with the same href changes nothing.
func (h *Head) SetFavicon(href string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.links {
		if h.links[i].Rel == RelIcon {
			h.links[i].Href = href
			return
		}
	}
	h.links = append(h.links, Link{Rel: RelIcon, Href: href})
}

// Favicon returns the current favicon href, or "".
func (h *Head) Favicon() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, l := range h.links {
		if l.Rel == RelIcon {
			return l.Href
		}
	}
	return ""
}

// Links returns a copy of the head links.
func (h *Head) Links() []Link {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Link(nil), h.links...)
}

// HTML renders the links as markup.
func (h *Head) HTML() string {
	var sb strings.Builder
	for _, l := range h.Links() {
		sb.WriteString(`<link rel="`)
		sb.WriteString(html.EscapeString(l.Rel))
		sb.WriteString(`" href="`)
		sb.WriteString(html.EscapeString(l.Href))
		sb.WriteString("\">\n")
	}
	return sb.String()
}
