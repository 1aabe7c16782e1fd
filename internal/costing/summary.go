package costing

// Summary is the display view of an analysis.
type Summary struct {
	ProductName   string               `json:"productName"`
	Category      string               `json:"category,omitempty"`
	Materials     []string             `json:"materials,omitempty"`
	EstimatedBOM  *CostRange           `json:"estimatedBOM,omitempty"`
	Methodology   string               `json:"methodology,omitempty"`
	MarketPrice   *CostRange           `json:"marketPrice,omitempty"`
	Currency      string               `json:"currency,omitempty"`
	PriceNotes    string               `json:"priceNotes,omitempty"`
	Markup        *MarkupRange         `json:"markup,omitempty"`
	MarkupText    string               `json:"markupText,omitempty"`
	Environmental *EnvironmentalImpact `json:"environmentalImpact,omitempty"`
	Confidence    *float64             `json:"confidence,omitempty"`
	Caution       string               `json:"caution,omitempty"`
}

// EnvironmentalImpact is shown as reported. Scores are clamped to [0,100] only
// for gauge rendering.
type EnvironmentalImpact struct {
	CarbonKgCO2e        *float64 `json:"carbonKgCO2e,omitempty"`
	CarbonMethodology   string   `json:"carbonMethodology,omitempty"`
	SustainabilityScore *float64 `json:"sustainabilityScore,omitempty"`
	Recyclability       *float64 `json:"recyclabilityPercent,omitempty"`
	RecyclabilityNotes  string   `json:"recyclabilityNotes,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// Summarize normalizes raw and builds its display view.
func Summarize(raw any) Summary {
	doc := Normalize(raw)

	s := Summary{
		ProductName: doc.Text(FieldProductName),
		Category:    doc.Text(FieldCategory),
		Materials:   doc.Strings(FieldMaterials),
		Caution:     doc.Text(FieldCaution),
	}
	if bom, ok := RangeOf(doc, FieldEstimatedBOM); ok {
		s.EstimatedBOM = &bom
		s.Methodology = doc.Object(FieldEstimatedBOM).Text(FieldMethodology)
	}
	if market, ok := RangeOf(doc, FieldMarketPrice); ok {
		s.MarketPrice = &market
		price := doc.Object(FieldMarketPrice)
		s.Currency = price.Text(FieldCurrency)
		s.PriceNotes = price.Text(FieldNotes)
	}
	if s.EstimatedBOM != nil && s.MarketPrice != nil {
		s.MarkupText = NotApplicable
		if m, ok := Markup(*s.EstimatedBOM, *s.MarketPrice); ok {
			rounded := m.Rounded()
			s.Markup = &rounded
			s.MarkupText = m.String()
		}
	}
	if c, ok := doc.Number(FieldConfidence); ok {
		s.Confidence = &c
	}
	if env := doc.Object(FieldEnvironmentalImpact); env != nil {
		s.Environmental = summarizeEnvironment(env)
	}
	return s
}

func summarizeEnvironment(env Document) *EnvironmentalImpact {
	out := &EnvironmentalImpact{Notes: env.Text("environmentalNotes")}
	if carbon := env.Object("carbonFootprint"); carbon != nil {
		if kg, ok := carbon.Number("kgCO2e"); ok {
			out.CarbonKgCO2e = &kg
		}
		out.CarbonMethodology = carbon.Text(FieldMethodology)
	}
	if score, ok := env.Number("sustainabilityScore"); ok {
		out.SustainabilityScore = &score
	}
	if recycling := env.Object("recyclability"); recycling != nil {
		if pct, ok := recycling.Number("percentage"); ok {
			out.Recyclability = &pct
		}
		out.RecyclabilityNotes = recycling.Text(FieldNotes)
	}
	return out
}

// GaugePercent clamps a score to [0,100] for bar rendering. Missing scores render
// as an empty gauge.
func GaugePercent(v *float64) float64 {
	if v == nil {
		return 0
	}
	return min(100, max(0, *v))
}
