package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anime-shed/truecost-inspector-go/internal/costing"
)

var errNotAnObject = errors.New("model reply is not a JSON object")

// ParseReply extracts the JSON object from a model reply. Markdown fences and
// prose around the object are tolerated. An empty reply is an empty object.
func ParseReply(text string) (costing.Document, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return costing.Document{}, nil
	}

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = ""
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		if start < 0 {
			return nil, errNotAnObject
		}
		s = s[start:]
	}

	// Decode only the first value so trailing prose is ignored.
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	doc, err := costing.Decode(raw)
	if err != nil {
		return nil, errNotAnObject
	}
	return doc, nil
}
