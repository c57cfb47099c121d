package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/ld-enricher/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		wantLen int
	}{
		{name: "array of objects", content: `[{"url":"http://x/a"},{"foo":"bar"}]`, wantLen: 2},
		{name: "empty array", content: `[]`, wantLen: 0},
		{name: "top level object", content: `{"url":"http://x/a"}`, wantErr: ErrParse},
		{name: "top level null", content: `null`, wantErr: ErrParse},
		{name: "invalid json", content: `[{"url":`, wantErr: ErrParse},
		{name: "array of strings", content: `["a","b"]`, wantErr: ErrParse},
		{name: "null element", content: `[{"a":1},null]`, wantErr: ErrParse},
		{name: "empty file", content: ``, wantErr: ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "meds.json", tt.content)

			coll, err := New(dir).Load("meds.json")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, coll, tt.wantLen)
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := New(t.TempDir()).Load("missing.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPersist_RoundTripPreservesFields(t *testing.T) {
	dir := t.TempDir()
	input := `[
  {"zeta": 1, "url": "http://x/a", "nested": {"b": [1, 2], "a": null}, "alpha": "<tag> & more"},
  {"foo": "bar"}
]`
	writeFile(t, dir, "meds.json", input)
	s := New(dir)

	coll, err := s.Load("meds.json")
	require.NoError(t, err)
	coll[1].SetMetaData(models.EmptyMetaData)
	require.NoError(t, s.Persist("meds.json", coll))

	data, err := os.ReadFile(filepath.Join(dir, "meds.json"))
	require.NoError(t, err)

	expected := `[
  {
    "zeta": 1,
    "url": "http://x/a",
    "nested": {
      "b": [
        1,
        2
      ],
      "a": null
    },
    "alpha": "<tag> & more"
  },
  {
    "foo": "bar",
    "metaData": {}
  }
]
`
	assert.Equal(t, expected, string(data))

	reloaded, err := s.Load("meds.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "url", "nested", "alpha"}, reloaded[0].Keys())
	meta, ok := reloaded[1].MetaData()
	require.True(t, ok)
	assert.JSONEq(t, `{}`, string(meta))
}

func TestPersist_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	rec := models.NewRecord()
	rec.Set("url", json.RawMessage(`"http://x/a"`))
	require.NoError(t, s.Persist("out.json", models.Collection{rec}))
	require.NoError(t, s.Persist("out.json", models.Collection{rec, rec}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}

func TestPersist_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, dir, "blocker", "not a directory")

	err := New(blocker).Persist("out.json", models.Collection{})
	require.ErrorIs(t, err, ErrIO)
}

func TestOpenLog_TruncatesAndAppends(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "meds.json.log", "stale entry from a previous run\n")
	s := New(dir)

	log, err := s.OpenLog("meds.json")
	require.NoError(t, err)
	require.NoError(t, log.Append("index 1: missing url"))
	require.NoError(t, log.Append("index 2: HTTP 404 Not Found\n"))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(s.LogPath("meds.json"))
	require.NoError(t, err)
	assert.Equal(t, "index 1: missing url\nindex 2: HTTP 404 Not Found\n", string(data))
	assert.False(t, strings.Contains(string(data), "stale"))
}

func TestLock_SecondLockFails(t *testing.T) {
	s := New(t.TempDir())

	first, err := s.Lock("meds.json")
	require.NoError(t, err)

	_, err = s.Lock("meds.json")
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Unlock())

	again, err := s.Lock("meds.json")
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
