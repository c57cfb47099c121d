// Package extractor locates the JSON-LD structured-metadata fragment embedded
// in an HTML page and decides whether an existing fragment counts as enriched.
package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const ldJSONType = "application/ld+json"

// ErrMalformed is returned when a JSON-LD block exists but is not valid JSON.
var ErrMalformed = errors.New("malformed JSON-LD block")

// Extract parses body as HTML and returns the content of the first JSON-LD
// script block. It returns nil, nil when the page has no such block.
func Extract(body string) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return ExtractDocument(doc)
}

// ExtractDocument is Extract for an already parsed document.
func ExtractDocument(doc *goquery.Document) (json.RawMessage, error) {
	block := doc.Find("script[type]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("type")
		return isLDJSON(typ)
	}).First()
	if block.Length() == 0 {
		return nil, nil
	}

	content := bytes.TrimSpace([]byte(block.Text()))
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrMalformed)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

// isLDJSON matches the type attribute case-insensitively, ignoring media type
// parameters such as charset.
func isLDJSON(typ string) bool {
	mediaType, _, _ := strings.Cut(typ, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), ldJSONType)
}

// IsEnriched reports whether an existing metaData value already holds a
// recognised fragment: a non-empty array with at least one element carrying
// "@type", or a single object carrying "@context". The empty sentinel and any
// other shape are not enriched.
func IsEnriched(meta json.RawMessage) bool {
	if len(bytes.TrimSpace(meta)) == 0 {
		return false
	}

	var value any
	if err := json.Unmarshal(meta, &value); err != nil {
		return false
	}

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				if _, has := obj["@type"]; has {
					return true
				}
			}
		}
	case map[string]any:
		_, has := v["@context"]
		return has
	}
	return false
}
