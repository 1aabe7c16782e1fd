package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anime-shed/truecost-inspector-go/internal/costing"
)

const gaugeWidth = 20

func printSummary(w io.Writer, s costing.Summary) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	_, err := io.WriteString(w, renderSummary(s))
	return err
}

func renderSummary(s costing.Summary) string {
	var b strings.Builder

	name := s.ProductName
	if name == "" {
		name = "Unknown product"
	}
	fmt.Fprintf(&b, "%s\n", name)
	if s.Category != "" {
		fmt.Fprintf(&b, "Category:      %s\n", s.Category)
	}
	if len(s.Materials) > 0 {
		fmt.Fprintf(&b, "Materials:     %s\n", strings.Join(s.Materials, ", "))
	}
	if s.Confidence != nil {
		fmt.Fprintf(&b, "Confidence:    %.0f%%\n", *s.Confidence*100)
	}

	if s.EstimatedBOM != nil {
		fmt.Fprintf(&b, "BOM cost:      %s\n", money(*s.EstimatedBOM, "USD"))
		if s.Methodology != "" {
			fmt.Fprintf(&b, "               %s\n", s.Methodology)
		}
	}
	if s.MarketPrice != nil {
		fmt.Fprintf(&b, "Market price:  %s\n", money(*s.MarketPrice, s.Currency))
		if s.PriceNotes != "" {
			fmt.Fprintf(&b, "               %s\n", s.PriceNotes)
		}
	}
	if s.MarkupText != "" {
		fmt.Fprintf(&b, "Markup:        %s\n", s.MarkupText)
	}

	if env := s.Environmental; env != nil {
		if env.CarbonKgCO2e != nil {
			fmt.Fprintf(&b, "Carbon:        %.1f kg CO2e\n", *env.CarbonKgCO2e)
		}
		if env.SustainabilityScore != nil {
			fmt.Fprintf(&b, "Sustainability %s\n", gauge(env.SustainabilityScore))
		}
		if env.Recyclability != nil {
			fmt.Fprintf(&b, "Recyclability  %s\n", gauge(env.Recyclability))
		}
		if env.Notes != "" {
			fmt.Fprintf(&b, "               %s\n", env.Notes)
		}
	}

	if s.Caution != "" {
		fmt.Fprintf(&b, "Caution:       %s\n", s.Caution)
	}
	return b.String()
}

func money(r costing.CostRange, currency string) string {
	if currency == "" {
		currency = costing.DefaultCurrency
	}
	return fmt.Sprintf("%.2f - %.2f %s", r.Low, r.High, currency)
}

// gauge renders a [0,100] bar; the printed value is the reported one.
func gauge(v *float64) string {
	pct := costing.GaugePercent(v)
	filled := int(pct / 100 * gaugeWidth)
	return fmt.Sprintf("[%s%s] %.0f", strings.Repeat("#", filled), strings.Repeat(".", gaugeWidth-filled), *v)
}
