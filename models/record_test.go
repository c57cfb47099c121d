package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, raw string) *Record {
	t.Helper()
	rec := NewRecord()
	require.NoError(t, json.Unmarshal([]byte(raw), rec))
	return rec
}

func TestRecord_URL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "string url", raw: `{"url":"http://x/a"}`, want: "http://x/a", wantOK: true},
		{name: "absent", raw: `{"foo":"bar"}`},
		{name: "null", raw: `{"url":null}`},
		{name: "empty string", raw: `{"url":""}`},
		{name: "number", raw: `{"url":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeRecord(t, tt.raw).URL()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_KeepsFieldOrderAndAppendsMetaData(t *testing.T) {
	rec := decodeRecord(t, `{"name":"A","url":"http://x/a","price":{"mrp":10.50}}`)
	rec.SetMetaData(json.RawMessage(`{"@context":"https://schema.org", "@type":"Drug"}`))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":"A","url":"http://x/a","price":{"mrp":10.50},"metaData":{"@context":"https://schema.org","@type":"Drug"}}`,
		string(out))
}

func TestRecord_SetMetaDataReplacesInPlace(t *testing.T) {
	rec := decodeRecord(t, `{"metaData":{},"url":"http://x/a"}`)
	rec.SetMetaData(json.RawMessage(`[{"@type":"Product"}]`))

	assert.Equal(t, []string{"metaData", "url"}, rec.Keys())
	meta, ok := rec.MetaData()
	require.True(t, ok)
	assert.JSONEq(t, `[{"@type":"Product"}]`, string(meta))
}

func TestRecord_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"x"`, `12`, `true`} {
		rec := NewRecord()
		assert.Error(t, json.Unmarshal([]byte(raw), rec), raw)
	}
}

func TestRecord_DoesNotEscapeHTML(t *testing.T) {
	rec := decodeRecord(t, `{"desc":"a < b & c"}`)
	assert.Equal(t, `{"desc":"a < b & c"}`, rec.String())
}

func TestCollection_Unmarshal(t *testing.T) {
	var coll Collection
	require.NoError(t, json.Unmarshal([]byte(`[{"url":"http://x/a"},{"foo":"bar"}]`), &coll))
	require.Len(t, coll, 2)

	u, ok := coll[0].URL()
	assert.True(t, ok)
	assert.Equal(t, "http://x/a", u)
	_, ok = coll[1].URL()
	assert.False(t, ok)
}
