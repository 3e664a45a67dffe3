// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// ContactStatus is the admin-managed state of a contact message.
type ContactStatus string

// Contact message statuses.
const (
	ContactNew     ContactStatus = "new"
	ContactRead    ContactStatus = "read"
	ContactReplied ContactStatus = "replied"
)

// Valid reports whether s is a known contact status.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactRead, ContactReplied:
		return true
	}
	return false
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	Meta
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Service   string        `json:"service"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	Client    *ClientInfo   `json:"client,omitempty"`
}

// FullName joins the name parts.
func (m ContactMessage) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// InquiryStatus is the admin-managed state of a project inquiry.
type InquiryStatus string

// Project inquiry statuses.
const (
	InquiryNew       InquiryStatus = "new"
	InquiryContacted InquiryStatus = "contacted"
	InquiryClosed    InquiryStatus = "closed"
)

// Valid reports whether s is a known inquiry status.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryNew, InquiryContacted, InquiryClosed:
		return true
	}
	return false
}

// ServiceType discriminates which variant bag of an inquiry is relevant.
type ServiceType string

// Service types offered by the quote form.
const (
	ServiceEcommerce ServiceType = "ecommerce"
	ServiceWebDev    ServiceType = "webdev"
	ServiceGraphics  ServiceType = "graphics"
	ServiceOther     ServiceType = "other"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceEcommerce, ServiceWebDev, ServiceGraphics, ServiceOther:
		return true
	}
	return false
}

// Label returns the human-readable service name.
func (t ServiceType) Label() string {
	switch t {
	case ServiceEcommerce:
		return "E-commerce Store"
	case ServiceWebDev:
		return "Website Development"
	case ServiceGraphics:
		return "Graphic Design"
	default:
		return "Other"
	}
}

// EcommerceDetails holds the e-commerce sub-form.
type EcommerceDetails struct {
	Platform       string   `json:"platform,omitempty"`
	ProductCount   string   `json:"productCount,omitempty"`
	PaymentMethods []string `json:"paymentMethods,omitempty"`
	NeedsInventory bool     `json:"needsInventory,omitempty"`
}

// WebDevDetails holds the web development sub-form.
type WebDevDetails struct {
	SiteType  string   `json:"siteType,omitempty"`
	PageCount string   `json:"pageCount,omitempty"`
	Features  []string `json:"features,omitempty"`
	HasDomain bool     `json:"hasDomain,omitempty"`
}

// GraphicsDetails holds the graphic design sub-form.
type GraphicsDetails struct {
	DesignTypes   []string `json:"designTypes,omitempty"`
	HasBrandGuide bool     `json:"hasBrandGuide,omitempty"`
	Formats       []string `json:"formats,omitempty"`
}

// ProjectInquiry is a submission of the public quote form. Any subset of the
// variant bags may be present regardless of ServiceType.
type ProjectInquiry struct {
	Meta
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	Company     string            `json:"company,omitempty"`
	ServiceType ServiceType       `json:"serviceType"`
	Ecommerce   *EcommerceDetails `json:"ecommerce,omitempty"`
	WebDev      *WebDevDetails    `json:"webDev,omitempty"`
	Graphics    *GraphicsDetails  `json:"graphics,omitempty"`
	Budget      string            `json:"budget,omitempty"`
	Timeline    string            `json:"timeline,omitempty"`
	Details     string            `json:"details,omitempty"`
	Status      InquiryStatus     `json:"status"`
	Client      *ClientInfo       `json:"client,omitempty"`
}
