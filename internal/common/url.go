package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// CleanURL trims copy-paste debris (whitespace, markdown links, wrapping
// punctuation) and checks that the result is an absolute http(s) URL.
func CleanURL(rawURL string) (string, error) {
	cleaned := strings.TrimSpace(rawURL)
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}
	cleaned = strings.TrimRight(cleaned, ",.)}]\"'>;")
	cleaned = strings.TrimLeft(cleaned, "([<\"'")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || strings.Contains(cleaned, " ") {
		return "", fmt.Errorf("invalid URL %q", rawURL)
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid URL %q: scheme must be http or https", rawURL)
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return "", fmt.Errorf("invalid URL %q: bad host", rawURL)
	}
	return cleaned, nil
}
