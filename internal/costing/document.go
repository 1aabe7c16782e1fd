// Package costing normalizes untrusted product analysis payloads and derives the
// display metrics shown next to them.
package costing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field names of the analysis payload.
const (
	FieldProductName         = "productName"
	FieldCategory            = "category"
	FieldMaterials           = "materials"
	FieldEstimatedBOM        = "estimatedBOM"
	FieldMarketPrice         = "marketPrice"
	FieldEnvironmentalImpact = "environmentalImpact"
	FieldConfidence          = "confidence"
	FieldCaution             = "caution"

	FieldLowUSD      = "lowUSD"
	FieldHighUSD     = "highUSD"
	FieldMethodology = "methodology"
	FieldCurrency    = "currency"
	FieldNotes       = "notes"
)

// DefaultCurrency is applied to market prices that do not name one.
const DefaultCurrency = "USD"

// Document is an analysis payload as decoded from JSON. Any field may be missing
// or carry the wrong primitive type.
type Document map[string]any

// Object returns the nested object stored under key, or nil.
func (d Document) Object(key string) Document {
	return asObject(d[key])
}

// Text returns the string under key, or "" when absent or not a string.
func (d Document) Text(key string) string {
	s, _ := d[key].(string)
	return s
}

// Number returns the value under key coerced to a finite float64.
// ok is false when the key is absent or the value is not numeric.
func (d Document) Number(key string) (float64, bool) {
	v, present := d[key]
	if !present || v == nil {
		return 0, false
	}
	return toFloat(v)
}

// Strings returns the string elements of the array under key.
func (d Document) Strings(key string) []string {
	items, ok := d[key].([]any)
	if !ok {
		if typed, ok := d[key].([]string); ok {
			return append([]string(nil), typed...)
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Decode parses a JSON object into a Document. Numbers are kept as float64.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func asObject(v any) Document {
	switch m := v.(type) {
	case Document:
		return m
	case map[string]any:
		return Document(m)
	default:
		return nil
	}
}

// toFloat converts the primitive kinds a JSON decoder or a caller may produce.
// NaN and infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
