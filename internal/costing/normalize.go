package costing

// Normalize returns a shallow copy of raw in which every present cost range
// (estimatedBOM, marketPrice) holds finite, non-negative, ordered bounds.
//
// Normalize never fails: nil or non-object input yields an empty Document. It is
// pure and idempotent, so producer and consumer may both apply it.
func Normalize(raw any) Document {
	src := asObject(raw)
	out := make(Document, len(src))
	for k, v := range src {
		out[k] = v
	}

	// Any present, non-null range value becomes a valid range, including falsy
	// scalars such as false, 0 and "".
	if v, ok := out[FieldEstimatedBOM]; ok && v != nil {
		out[FieldEstimatedBOM] = normalizeRange(asObject(v))
	}
	if v, ok := out[FieldMarketPrice]; ok && v != nil {
		price := normalizeRange(asObject(v))
		if isBlank(price[FieldCurrency]) {
			price[FieldCurrency] = DefaultCurrency
		}
		if isBlank(price[FieldNotes]) {
			price[FieldNotes] = ""
		}
		out[FieldMarketPrice] = price
	}
	return out
}

// normalizeRange copies src into a plain map, as a JSON decoder would produce,
// and rewrites its bounds:
//
//	low  = max(0, parse(lowUSD, 0))
//	high = max(low, parse(highUSD, low))
func normalizeRange(src Document) map[string]any {
	out := make(map[string]any, len(src)+2)
	for k, v := range src {
		out[k] = v
	}
	low := max(0, coerce(src, FieldLowUSD, 0))
	high := max(low, coerce(src, FieldHighUSD, low))
	out[FieldLowUSD] = low
	out[FieldHighUSD] = high
	return out
}

// coerce yields fallback for an absent or null value and 0 for anything that does
// not parse to a finite number.
func coerce(src Document, key string, fallback float64) float64 {
	v, present := src[key]
	if !present || v == nil {
		return fallback
	}
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return f
}

// isBlank reports values a display layer treats as "not provided".
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0 || t != t
	}
	return false
}
