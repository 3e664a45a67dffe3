// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// SettingsGeneralID is the fixed key of the site settings singleton.
const SettingsGeneralID = "general"

// SocialLinks holds the site's social profile URLs.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Behance   string `json:"behance,omitempty"`
}

// AnalyticsIDs holds third-party analytics identifiers.
type AnalyticsIDs struct {
	GoogleAnalyticsID  string `json:"googleAnalyticsId,omitempty"`
	GoogleTagManagerID string `json:"googleTagManagerId,omitempty"`
	FacebookPixelID    string `json:"facebookPixelId,omitempty"`
}

// SiteSettings is the global branding and integration record.
type SiteSettings struct {
	SiteName   string       `json:"siteName"`
	AdminEmail string       `json:"adminEmail"`
	LogoURL    string       `json:"logoUrl"`
	FaviconURL string       `json:"faviconUrl,omitempty"`
	Phone      string       `json:"phone,omitempty"`
	Address    string       `json:"address,omitempty"`
	Social     SocialLinks  `json:"social"`
	Analytics  AnalyticsIDs `json:"analytics"`
	UpdatedAt  time.Time    `json:"updatedAt,omitzero"`
}

// DefaultSiteSettings returns the record used when none is stored.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:   "Studio",
		AdminEmail: "admin@example.com",
		LogoURL:    "/static/images/logo.svg",
	}
}
