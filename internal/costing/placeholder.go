package costing

// ParseErrorName is the productName of the placeholder result.
const ParseErrorName = "Parse Error"

// ParseErrorPlaceholder is substituted when the model reply cannot be parsed, so
// the pipeline still completes with a structurally valid result.
func ParseErrorPlaceholder() Document {
	return Document{
		FieldProductName: ParseErrorName,
		FieldEstimatedBOM: Document{
			FieldLowUSD:      0.0,
			FieldHighUSD:     0.0,
			FieldMethodology: "Failed to parse response",
		},
		FieldCaution: "Non-JSON output received",
	}
}
