// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Icon identifies one of a closed set of directory icons.
type Icon string

// Known icons.
const (
	IconCode          Icon = "code"
	IconPalette       Icon = "palette"
	IconShoppingCart  Icon = "shopping-cart"
	IconGlobe         Icon = "globe"
	IconImage         Icon = "image"
	IconPenTool       Icon = "pen-tool"
	IconLayout        Icon = "layout"
	IconSearch        Icon = "search"
	IconBarChart      Icon = "bar-chart"
	IconMail          Icon = "mail"
	IconCamera        Icon = "camera"
	IconZap           Icon = "zap"
	IconWrench        Icon = "wrench"
	IconSmartphone    Icon = "smartphone"
	IconTypography    Icon = "type"
	IconColorContrast Icon = "contrast"
)

// IconAsset is the concrete asset an icon resolves to.
type IconAsset struct {
	Icon  Icon   `json:"icon"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// iconAssets is ordered as shown in the admin icon picker.
var iconAssets = []IconAsset{
	{IconCode, "Code", "/static/icons/code.svg"},
	{IconPalette, "Palette", "/static/icons/palette.svg"},
	{IconShoppingCart, "Shopping cart", "/static/icons/shopping-cart.svg"},
	{IconGlobe, "Globe", "/static/icons/globe.svg"},
	{IconImage, "Image", "/static/icons/image.svg"},
	{IconPenTool, "Pen tool", "/static/icons/pen-tool.svg"},
	{IconLayout, "Layout", "/static/icons/layout.svg"},
	{IconSearch, "Search", "/static/icons/search.svg"},
	{IconBarChart, "Bar chart", "/static/icons/bar-chart.svg"},
	{IconMail, "Mail", "/static/icons/mail.svg"},
	{IconCamera, "Camera", "/static/icons/camera.svg"},
	{IconZap, "Lightning", "/static/icons/zap.svg"},
	{IconWrench, "Wrench", "/static/icons/wrench.svg"},
	{IconSmartphone, "Smartphone", "/static/icons/smartphone.svg"},
	{IconTypography, "Typography", "/static/icons/type.svg"},
	{IconColorContrast, "Contrast", "/static/icons/contrast.svg"},
}

var iconIndex = func() map[Icon]IconAsset {
	m := make(map[Icon]IconAsset, len(iconAssets))
	for _, a := range iconAssets {
		m[a.Icon] = a
	}
	return m
}()

// Asset resolves the icon to its asset.
func (i Icon) Asset() (IconAsset, bool) {
	a, ok := iconIndex[i]
	return a, ok
}

// Valid reports whether i is a known icon.
func (i Icon) Valid() bool {
	_, ok := iconIndex[i]
	return ok
}

// Icons returns every known icon asset in picker order.
func Icons() []IconAsset {
	out := make([]IconAsset, len(iconAssets))
	copy(out, iconAssets)
	return out
}
