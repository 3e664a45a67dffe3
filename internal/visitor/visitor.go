// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package visitor describes who submitted a public form.
package visitor

import (
	"github.com/mileusna/useragent"

	"github.com/olegiv/studiosite/internal/model"
)

// Device types.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// CountryResolver maps an IP address to an ISO country code.
type CountryResolver interface {
	Country(ip string) string
}

// Resolver builds model.ClientInfo from a request's address and user agent.
type Resolver struct {
	countries CountryResolver
}

// NewResolver creates a resolver. countries may be nil.
func NewResolver(countries CountryResolver) *Resolver {
	return &Resolver{countries: countries}
}

// Resolve parses the user agent and looks up the country of ip.
func (r *Resolver) Resolve(ip, userAgent string) model.ClientInfo {
	ua := useragent.Parse(userAgent)

	info := model.ClientInfo{
		Browser: ua.Name,
		OS:      ua.OS,
	}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		info.Device = DeviceMobile
	case ua.Tablet:
		info.Device = DeviceTablet
	case ua.Bot:
		info.Device = DeviceBot
	default:
		info.Device = DeviceDesktop
	}

	if r != nil && r.countries != nil {
		info.Country = r.countries.Country(ip)
	}
	return info
}
