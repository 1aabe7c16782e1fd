package costing

import (
	"fmt"
	"math"
)

// CostRange is a normalized low/high pair in USD.
type CostRange struct {
	Low  float64 `json:"lowUSD"`
	High float64 `json:"highUSD"`
}

// RangeOf reads a cost range from a normalized document. ok is false when the
// document has no such range.
func RangeOf(doc Document, key string) (CostRange, bool) {
	obj := doc.Object(key)
	if obj == nil {
		return CostRange{}, false
	}
	low, _ := obj.Number(FieldLowUSD)
	high, _ := obj.Number(FieldHighUSD)
	return CostRange{Low: low, High: high}, true
}

// MarkupRange is the markup percentage span between BOM cost and market price.
type MarkupRange struct {
	Low  float64 `json:"lowPercent"`
	High float64 `json:"highPercent"`
}

// Markup pairs the low market price with the high BOM cost and the high market
// price with the low BOM cost, giving the most conservative and the most generous
// markup. It is not applicable when either market bound is zero or negative.
func Markup(bom, market CostRange) (MarkupRange, bool) {
	if market.Low <= 0 || market.High <= 0 {
		return MarkupRange{}, false
	}
	var r MarkupRange
	if market.Low > bom.High {
		r.Low = (market.Low - bom.High) / market.Low * 100
	}
	if market.High > bom.Low {
		r.High = (market.High - bom.Low) / market.High * 100
	}
	return r, true
}

// Rounded returns the range rounded to one decimal place.
func (r MarkupRange) Rounded() MarkupRange {
	return MarkupRange{Low: round1(r.Low), High: round1(r.High)}
}

func (r MarkupRange) String() string {
	return fmt.Sprintf("%.1f%% - %.1f%%", r.Low, r.High)
}

// NotApplicable is what displays show in place of an undefined markup.
const NotApplicable = "N/A"

// FormatMarkup renders the markup of a normalized document, or NotApplicable.
func FormatMarkup(doc Document) string {
	m, ok := DocumentMarkup(doc)
	if !ok {
		return NotApplicable
	}
	return m.String()
}

// DocumentMarkup computes the markup from a document's estimatedBOM and
// marketPrice. Both ranges must be present.
func DocumentMarkup(doc Document) (MarkupRange, bool) {
	bom, ok := RangeOf(doc, FieldEstimatedBOM)
	if !ok {
		return MarkupRange{}, false
	}
	market, ok := RangeOf(doc, FieldMarketPrice)
	if !ok {
		return MarkupRange{}, false
	}
	return Markup(bom, market)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
