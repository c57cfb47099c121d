package detector

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html lang="en"><head>
<title>Crocin Advance 500mg Tablet</title>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Drug","name":"Crocin Advance"}</script>
</head><body><article>
<h1>Crocin Advance 500mg Tablet</h1>
<p>Crocin Advance 500mg Tablet is a medicine used to relieve pain and to reduce fever. It is used to treat many conditions such as headache, body ache, toothache and the common cold.</p>
<p>It works by blocking the release of certain chemical messengers in the brain that are responsible for pain and fever. Take it in the dose and duration advised by your doctor.</p>
</article></body></html>`

func TestAnalyze(t *testing.T) {
	r, err := Analyze("https://www.example.in/drugs/crocin", productPage)
	require.NoError(t, err)

	assert.Equal(t, "in", r.Country)
	assert.Equal(t, "Crocin Advance 500mg Tablet", r.Title)
	assert.True(t, r.Enriched)
	meta, ok := r.MetaData.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Drug", meta["@type"])
	assert.Empty(t, r.MetaDataError)
	assert.Equal(t, "en", r.Language)
	assert.Greater(t, r.Confidence, 0.0)
}

func TestAnalyze_MalformedFragment(t *testing.T) {
	page := `<html><head><title>x</title><script type="application/ld+json">{"@type":</script></head><body></body></html>`
	r, err := Analyze("https://example.com/x", page)
	require.NoError(t, err)
	assert.False(t, r.Enriched)
	assert.Nil(t, r.MetaData)
	assert.NotEmpty(t, r.MetaDataError)
}

func TestAnalyze_BadURL(t *testing.T) {
	_, err := Analyze("://bad", "<html></html>")
	require.Error(t, err)
}

func TestDetectCountry(t *testing.T) {
	tests := map[string]string{
		"https://www.1mg.com/x":   "unknown",
		"https://shop.example.in": "in",
		"https://nih.gov/":        "us",
		"http://localhost:8080/":  "unknown",
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, detectCountry(u), raw)
	}
}
