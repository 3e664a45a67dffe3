// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/store"
)

// SettingsPatch holds the settings fields to change; nil fields are kept.
type SettingsPatch struct {
	SiteName   *string             `json:"siteName,omitempty"`
	AdminEmail *string             `json:"adminEmail,omitempty"`
	LogoURL    *string             `json:"logoUrl,omitempty"`
	FaviconURL *string             `json:"faviconUrl,omitempty"`
	Phone      *string             `json:"phone,omitempty"`
	Address    *string             `json:"address,omitempty"`
	Social     *SocialPatch    `json:"social,omitempty"`
	Analytics  *AnalyticsPatch `json:"analytics,omitempty"`
}

// SocialPatch changes individual social links. An empty string clears a link.
type SocialPatch struct {
	Facebook  *string `json:"facebook,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	YouTube   *string `json:"youtube,omitempty"`
	Behance   *string `json:"behance,omitempty"`
}

func (p SocialPatch) apply(links *model.SocialLinks) {
	assign(&links.Facebook, p.Facebook)
	assign(&links.Instagram, p.Instagram)
	assign(&links.LinkedIn, p.LinkedIn)
	assign(&links.Twitter, p.Twitter)
	assign(&links.YouTube, p.YouTube)
	assign(&links.Behance, p.Behance)
}

// AnalyticsPatch changes individual analytics identifiers.
type AnalyticsPatch struct {
	GoogleAnalyticsID  *string `json:"googleAnalyticsId,omitempty"`
	GoogleTagManagerID *string `json:"googleTagManagerId,omitempty"`
	FacebookPixelID    *string `json:"facebookPixelId,omitempty"`
}

func (p AnalyticsPatch) apply(ids *model.AnalyticsIDs) {
	assign(&ids.GoogleAnalyticsID, p.GoogleAnalyticsID)
	assign(&ids.GoogleTagManagerID, p.GoogleTagManagerID)
	assign(&ids.FacebookPixelID, p.FacebookPixelID)
}

func assign(dst, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// SettingsService reads and writes the site settings singleton.
type SettingsService struct {
	docs   *store.Documents
	logger *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(docs *store.Documents, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{docs: docs, logger: logger}
}

// Get returns the stored settings, creating the record with defaults when absent.
func (s *SettingsService) Get(ctx context.Context) (model.SiteSettings, error) {
	doc, err := s.docs.Get(ctx, model.CollectionSettings, model.SettingsGeneralID)
	if errors.Is(err, store.ErrNotFound) {
		doc, err = s.docs.Set(ctx, model.CollectionSettings, model.SettingsGeneralID, model.DefaultSiteSettings())
		if err == nil {
			s.logger.Info("created default site settings", "category", model.EventCategorySettings)
		}
	}
	if err != nil {
		return model.SiteSettings{}, storeErr("loading site settings", err)
	}
	return DecodeSettings(doc)
}

// Update merges patch into the stored settings. Concurrent updates are last write wins.
func (s *SettingsService) Update(ctx context.Context, patch SettingsPatch) (model.SiteSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return model.SiteSettings{}, err
	}

	fields := map[string]any{}
	set := func(key string, dst *string, v *string) {
		if v != nil {
			assign(dst, v)
			fields[key] = *dst
		}
	}
	set("siteName", &current.SiteName, patch.SiteName)
	set("adminEmail", &current.AdminEmail, patch.AdminEmail)
	set("logoUrl", &current.LogoURL, patch.LogoURL)
	set("faviconUrl", &current.FaviconURL, patch.FaviconURL)
	set("phone", &current.Phone, patch.Phone)
	set("address", &current.Address, patch.Address)
	// Nested objects are merged per key; the store only merges top-level fields.
	if patch.Social != nil {
		patch.Social.apply(&current.Social)
		fields["social"] = current.Social
	}
	if patch.Analytics != nil {
		patch.Analytics.apply(&current.Analytics)
		fields["analytics"] = current.Analytics
	}

	v := validator{}
	v.required("siteName", current.SiteName)
	v.email("adminEmail", current.AdminEmail)
	if err := v.err(); err != nil {
		return model.SiteSettings{}, err
	}
	if len(fields) == 0 {
		return current, nil
	}

	doc, err := s.docs.Update(ctx, model.CollectionSettings, model.SettingsGeneralID, fields)
	if err != nil {
		return model.SiteSettings{}, storeErr("updating site settings", err)
	}
	s.logger.Info("site settings updated", "category", model.EventCategorySettings, "fields", len(fields))
	return DecodeSettings(doc)
}

// DecodeSettings reads a settings document, falling back to the default value
// for keys the document lacks.
func DecodeSettings(doc store.Document) (model.SiteSettings, error) {
	settings := model.DefaultSiteSettings()
	if err := doc.Decode(&settings); err != nil {
		return model.SiteSettings{}, err
	}
	settings.UpdatedAt = doc.UpdatedAt
	return settings, nil
}
