// Package detector summarizes a single page: its ld+json fragment, the
// readability article fields and the detected language of the text.
package detector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"

	"github.com/dtnitsch/ld-enricher/pkg/extractor"
)

// Report is what inspect prints for one page.
type Report struct {
	URL           string  `yaml:"url"`
	Country       string  `yaml:"country"`
	Title         string  `yaml:"title,omitempty"`
	Byline        string  `yaml:"byline,omitempty"`
	Excerpt       string  `yaml:"excerpt,omitempty"`
	SiteName      string  `yaml:"site_name,omitempty"`
	Image         string  `yaml:"image,omitempty"`
	PublishedTime string  `yaml:"published_time,omitempty"`
	Language      string  `yaml:"language"`
	Confidence    float64 `yaml:"language_confidence"`

	// Enriched is true when MetaData would be kept by the enricher as is.
	Enriched      bool   `yaml:"enriched"`
	MetaData      any    `yaml:"metadata,omitempty"`
	MetaDataError string `yaml:"metadata_error,omitempty"`
}

// languages the detector chooses between
var languages = []lingua.Language{
	lingua.English,
	lingua.Hindi,
	lingua.Bengali,
	lingua.Tamil,
	lingua.Marathi,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
}

var languageDetector = sync.OnceValue(func() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		WithMinimumRelativeDistance(0.1).
		Build()
})

// Analyze builds a Report from the raw HTML of rawURL.
func Analyze(rawURL, html string) (*Report, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	r := &Report{URL: rawURL, Country: detectCountry(parsedURL), Language: "unknown"}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	fragment, err := extractor.ExtractDocument(doc)
	switch {
	case err != nil:
		r.MetaDataError = err.Error()
	case fragment != nil:
		r.Enriched = extractor.IsEnriched(fragment)
		var v any
		if err := json.Unmarshal(fragment, &v); err == nil {
			r.MetaData = v
		}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	text := doc.Find("body").Text()
	if err == nil {
		r.Title = normalizeText(article.Title)
		r.Byline = article.Byline
		r.Excerpt = normalizeText(article.Excerpt)
		r.SiteName = article.SiteName
		r.Image = article.Image
		if article.PublishedTime != nil {
			r.PublishedTime = article.PublishedTime.Format("2006-01-02")
		}
		if content, cerr := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); cerr == nil {
			if t := content.Text(); strings.TrimSpace(t) != "" {
				text = t
			}
		}
	}
	if r.Title == "" {
		r.Title = normalizeText(doc.Find("title").First().Text())
	}

	r.Language, r.Confidence = detectLanguage(text)
	return r, nil
}

// detectLanguage returns the ISO 639-1 code of the most likely language.
func detectLanguage(text string) (string, float64) {
	text = normalizeText(text)
	if text == "" {
		return "unknown", 0
	}
	d := languageDetector()
	lang, ok := d.DetectLanguageOf(text)
	if !ok {
		return "unknown", 0
	}
	code := strings.ToLower(lang.IsoCode639_1().String())
	return code, d.ComputeLanguageConfidence(text, lang)
}

// detectCountry guesses a country from the TLD.
func detectCountry(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return "unknown"
	}

	tld := parts[len(parts)-1]
	countries := map[string]string{
		"uk": "uk", "de": "de", "fr": "fr", "jp": "jp", "cn": "cn",
		"au": "au", "ca": "ca", "in": "in", "br": "br", "ru": "ru",
		"it": "it", "es": "es", "nl": "nl", "se": "se", "ch": "ch",
	}
	if country, ok := countries[tld]; ok {
		return country
	}
	if tld == "gov" || tld == "edu" || tld == "mil" {
		return "us"
	}
	return "unknown"
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
