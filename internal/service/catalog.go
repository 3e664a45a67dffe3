// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/store"
	"github.com/olegiv/studiosite/internal/util"
)

// ProductView is a product prepared for display.
type ProductView struct {
	model.Product
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
	DisplayPrice    string `json:"displayPrice"`
}

// ProductPatch holds the product fields to change; nil fields are kept.
// ClearPrice makes the product quote-only.
type ProductPatch struct {
	Name            *string              `json:"name,omitempty"`
	Slug            *string              `json:"slug,omitempty"`
	Category        *string              `json:"category,omitempty"`
	ImageURL        *string              `json:"imageUrl,omitempty"`
	PriceCents      *int64               `json:"priceCents,omitempty"`
	ClearPrice      bool                 `json:"clearPrice,omitempty"`
	Description     *string              `json:"description,omitempty"`
	LongDescription *string              `json:"longDescription,omitempty"`
	Tags            *[]string            `json:"tags,omitempty"`
	Status          *model.ProductStatus `json:"status,omitempty"`
}

// ProductService manages the product catalog.
type ProductService struct {
	docs   *store.Documents
	logger *slog.Logger
}

// NewProductService creates a ProductService.
func NewProductService(docs *store.Documents, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{docs: docs, logger: logger}
}

// ListPublic returns non-archived products, newest first, optionally limited
// to one category.
func (s *ProductService) ListPublic(ctx context.Context, category string) ([]model.Product, error) {
	q := store.Query{
		Collection: model.CollectionProducts,
		Filters:    []store.Filter{store.NotEq(store.FieldStatus, string(model.ProductArchived))},
		OrderBy:    store.FieldCreatedAt,
		Descending: true,
	}
	products, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return filterCategory(products, category, func(p model.Product) string { return p.Category }), nil
}

// ListAll returns every product including archived ones, newest first.
func (s *ProductService) ListAll(ctx context.Context) ([]model.Product, error) {
	return s.query(ctx, store.Newest(model.CollectionProducts, 0))
}

func (s *ProductService) query(ctx context.Context, q store.Query) ([]model.Product, error) {
	docs, err := s.docs.Query(ctx, q)
	if err != nil {
		return nil, storeErr("listing products", err)
	}
	return decodeRecords[model.Product](docs)
}

// Get returns one product with its rendered description and display price.
// Archived products are only returned when includeArchived is set.
func (s *ProductService) Get(ctx context.Context, id string, includeArchived bool) (ProductView, error) {
	doc, err := s.docs.Get(ctx, model.CollectionProducts, id)
	if err != nil {
		return ProductView{}, storeErr("loading product", err)
	}
	p, err := decodeRecord[model.Product](doc)
	if err != nil {
		return ProductView{}, err
	}
	if !includeArchived && !p.Public() {
		return ProductView{}, ErrNotFound
	}

	view := ProductView{Product: p, DisplayPrice: util.FormatPrice(p.PriceCents)}
	if p.LongDescription != "" {
		html, err := util.RenderMarkdown(p.LongDescription)
		if err != nil {
			s.logger.Warn("rendering product description failed", "id", id, "error", err)
		} else {
			view.DescriptionHTML = html
		}
	}
	return view, nil
}

// Create validates and stores a new product. An empty slug is derived from the name.
func (s *ProductService) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.Meta = model.Meta{}
	if p.Status == "" {
		p.Status = model.ProductActive
	}
	if p.Slug == "" {
		p.Slug = util.Slugify(p.Name)
	}
	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}

	slug, err := s.uniqueSlug(ctx, p.Slug, "")
	if err != nil {
		return model.Product{}, err
	}
	p.Slug = slug

	doc, err := s.docs.Create(ctx, model.CollectionProducts, p)
	if err != nil {
		return model.Product{}, storeErr("saving product", err)
	}
	p.SetMeta(doc.ID, doc.CreatedAt)
	s.logger.Info("product created", "id", p.ID, "slug", p.Slug, "category", model.EventCategoryCatalog)
	return p, nil
}

// Update applies patch to a product.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (model.Product, error) {
	current, err := s.Get(ctx, id, true)
	if err != nil {
		return model.Product{}, err
	}

	p := current.Product
	fields := map[string]any{}
	setString := func(key string, dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			fields[key] = *dst
		}
	}
	setString("name", &p.Name, patch.Name)
	setString("category", &p.Category, patch.Category)
	setString("imageUrl", &p.ImageURL, patch.ImageURL)
	setString("description", &p.Description, patch.Description)
	setString("longDescription", &p.LongDescription, patch.LongDescription)
	if patch.Slug != nil {
		p.Slug = *patch.Slug
		if p.Slug == "" {
			p.Slug = util.Slugify(p.Name)
		}
	}
	switch {
	case patch.ClearPrice:
		p.PriceCents = nil
		fields["priceCents"] = nil
	case patch.PriceCents != nil:
		p.PriceCents = patch.PriceCents
		fields["priceCents"] = *patch.PriceCents
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
		fields["tags"] = p.Tags
	}
	if patch.Status != nil {
		p.Status = *patch.Status
		fields["status"] = p.Status
	}

	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}
	if patch.Slug != nil {
		slug, err := s.uniqueSlug(ctx, p.Slug, id)
		if err != nil {
			return model.Product{}, err
		}
		fields["slug"] = slug
	}
	if len(fields) == 0 {
		return p, nil
	}

	doc, err := s.docs.Update(ctx, model.CollectionProducts, id, fields)
	if err != nil {
		return model.Product{}, storeErr("updating product", err)
	}
	return decodeRecord[model.Product](doc)
}

// Delete removes a product. Existing orders keep their snapshots.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, model.CollectionProducts, id); err != nil {
		return storeErr("deleting product", err)
	}
	return nil
}

// uniqueSlug appends a numeric suffix until no other product uses the slug.
func (s *ProductService) uniqueSlug(ctx context.Context, slug, selfID string) (string, error) {
	products, err := s.ListAll(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(products))
	for _, p := range products {
		if p.ID != selfID {
			taken[p.Slug] = true
		}
	}
	candidate := slug
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", slug, n)
	}
	return candidate, nil
}

func validateProduct(p model.Product) error {
	v := validator{}
	v.required("name", p.Name)
	v.required("category", p.Category)
	v.check(util.IsValidSlug(p.Slug), "slug", "use lowercase letters, numbers, and hyphens")
	v.check(p.PriceCents == nil || *p.PriceCents >= 0, "priceCents", "must not be negative")
	v.check(p.Status.Valid(), "status", "must be active or archived")
	return v.err()
}

// ReadySitePatch holds the template fields to change; nil fields are kept.
type ReadySitePatch struct {
	Title       *string   `json:"title,omitempty"`
	Category    *string   `json:"category,omitempty"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Description *string   `json:"description,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	PreviewURL  *string   `json:"previewUrl,omitempty"`
	SortOrder   *int      `json:"sortOrder,omitempty"`
	IsConcept   *bool     `json:"isConcept,omitempty"`
}

func (p ReadySitePatch) fields() map[string]any {
	fields := map[string]any{}
	put := func(key string, set bool, v any) {
		if set {
			fields[key] = v
		}
	}
	put("title", p.Title != nil, deref(p.Title))
	put("category", p.Category != nil, deref(p.Category))
	put("imageUrl", p.ImageURL != nil, deref(p.ImageURL))
	put("description", p.Description != nil, deref(p.Description))
	put("features", p.Features != nil, deref(p.Features))
	put("previewUrl", p.PreviewURL != nil, deref(p.PreviewURL))
	put("sortOrder", p.SortOrder != nil, deref(p.SortOrder))
	put("isConcept", p.IsConcept != nil, deref(p.IsConcept))
	return fields
}

// ReadySiteService manages ready-made site templates.
type ReadySiteService struct {
	docs *store.Documents
}

// NewReadySiteService creates a ReadySiteService.
func NewReadySiteService(docs *store.Documents) *ReadySiteService {
	return &ReadySiteService{docs: docs}
}

// List returns templates by their manual sort order.
func (s *ReadySiteService) List(ctx context.Context) ([]model.ReadySite, error) {
	docs, err := s.docs.Query(ctx, store.Query{Collection: model.CollectionReadySites, OrderBy: store.FieldSortOrder})
	if err != nil {
		return nil, storeErr("listing ready sites", err)
	}
	return decodeRecords[model.ReadySite](docs)
}

// Get returns one template.
func (s *ReadySiteService) Get(ctx context.Context, id string) (model.ReadySite, error) {
	doc, err := s.docs.Get(ctx, model.CollectionReadySites, id)
	if err != nil {
		return model.ReadySite{}, storeErr("loading ready site", err)
	}
	return decodeRecord[model.ReadySite](doc)
}

// Create stores a new template.
func (s *ReadySiteService) Create(ctx context.Context, site model.ReadySite) (model.ReadySite, error) {
	site.Meta = model.Meta{}
	if err := validateReadySite(site); err != nil {
		return model.ReadySite{}, err
	}
	doc, err := s.docs.Create(ctx, model.CollectionReadySites, site)
	if err != nil {
		return model.ReadySite{}, storeErr("saving ready site", err)
	}
	site.SetMeta(doc.ID, doc.CreatedAt)
	return site, nil
}

// Update applies patch to a template.
func (s *ReadySiteService) Update(ctx context.Context, id string, patch ReadySitePatch) (model.ReadySite, error) {
	fields := patch.fields()
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.ReadySite{}, &ValidationError{Fields: map[string]string{"title": "is required"}}
	}
	doc, err := s.docs.Update(ctx, model.CollectionReadySites, id, fields)
	if err != nil {
		return model.ReadySite{}, storeErr("updating ready site", err)
	}
	return decodeRecord[model.ReadySite](doc)
}

// Delete removes a template.
func (s *ReadySiteService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, model.CollectionReadySites, id); err != nil {
		return storeErr("deleting ready site", err)
	}
	return nil
}

func validateReadySite(site model.ReadySite) error {
	v := validator{}
	v.required("title", site.Title)
	v.required("category", site.Category)
	return v.err()
}

// ToolPatch holds the tool fields to change; nil fields are kept.
type ToolPatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	URL         *string     `json:"url,omitempty"`
	Icon        *model.Icon `json:"icon,omitempty"`
	Category    *string     `json:"category,omitempty"`
}

// ToolService manages the tools directory.
type ToolService struct {
	docs *store.Documents
}

// NewToolService creates a ToolService.
func NewToolService(docs *store.Documents) *ToolService {
	return &ToolService{docs: docs}
}

// List returns tools, newest first, optionally limited to one category.
func (s *ToolService) List(ctx context.Context, category string) ([]model.Tool, error) {
	docs, err := s.docs.Query(ctx, store.Newest(model.CollectionTools, 0))
	if err != nil {
		return nil, storeErr("listing tools", err)
	}
	tools, err := decodeRecords[model.Tool](docs)
	if err != nil {
		return nil, err
	}
	return filterCategory(tools, category, func(t model.Tool) string { return t.Category }), nil
}

// Get returns one tool.
func (s *ToolService) Get(ctx context.Context, id string) (model.Tool, error) {
	doc, err := s.docs.Get(ctx, model.CollectionTools, id)
	if err != nil {
		return model.Tool{}, storeErr("loading tool", err)
	}
	return decodeRecord[model.Tool](doc)
}

// Create stores a new tool. The icon must be a known identifier.
func (s *ToolService) Create(ctx context.Context, tool model.Tool) (model.Tool, error) {
	tool.Meta = model.Meta{}
	if err := validateTool(tool); err != nil {
		return model.Tool{}, err
	}
	doc, err := s.docs.Create(ctx, model.CollectionTools, tool)
	if err != nil {
		return model.Tool{}, storeErr("saving tool", err)
	}
	tool.SetMeta(doc.ID, doc.CreatedAt)
	return tool, nil
}

// Update applies patch to a tool.
func (s *ToolService) Update(ctx context.Context, id string, patch ToolPatch) (model.Tool, error) {
	tool, err := s.Get(ctx, id)
	if err != nil {
		return model.Tool{}, err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		tool.Name = *patch.Name
		fields["name"] = tool.Name
	}
	if patch.Description != nil {
		tool.Description = *patch.Description
		fields["description"] = tool.Description
	}
	if patch.URL != nil {
		tool.URL = *patch.URL
		fields["url"] = tool.URL
	}
	if patch.Icon != nil {
		tool.Icon = *patch.Icon
		fields["icon"] = tool.Icon
	}
	if patch.Category != nil {
		tool.Category = *patch.Category
		fields["category"] = tool.Category
	}
	if err := validateTool(tool); err != nil {
		return model.Tool{}, err
	}
	if len(fields) == 0 {
		return tool, nil
	}

	doc, err := s.docs.Update(ctx, model.CollectionTools, id, fields)
	if err != nil {
		return model.Tool{}, storeErr("updating tool", err)
	}
	return decodeRecord[model.Tool](doc)
}

// Delete removes a tool.
func (s *ToolService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, model.CollectionTools, id); err != nil {
		return storeErr("deleting tool", err)
	}
	return nil
}

func validateTool(tool model.Tool) error {
	v := validator{}
	v.required("name", tool.Name)
	v.required("url", tool.URL)
	v.check(tool.Icon.Valid(), "icon", fmt.Sprintf("unknown icon %q", tool.Icon))
	return v.err()
}

// filterCategory keeps items whose category matches, case-insensitively.
// An empty category keeps everything.
func filterCategory[T any](items []T, category string, categoryOf func(T) string) []T {
	if category == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.EqualFold(categoryOf(item), category) {
			out = append(out, item)
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
