// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// QuoteLabel is shown in place of a price for quote-only products.
const QuoteLabel = "Request a quote"

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders cents as a dollar amount, or QuoteLabel when the price
// is absent. Zero renders as "$0.00".
func FormatPrice(cents *int64) string {
	if cents == nil {
		return QuoteLabel
	}
	v := *cents
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, pricePrinter.Sprintf("%d", v/100), v%100)
}
