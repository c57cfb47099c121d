package enricher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/ld-enricher/models"
	"github.com/dtnitsch/ld-enricher/pkg/db"
	"github.com/dtnitsch/ld-enricher/pkg/fetcher"
	"github.com/dtnitsch/ld-enricher/pkg/storage"
)

func TestRun_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/drug":
			_, _ = w.Write([]byte(ldPage(`{"@context":"https://schema.org","@type":"Drug","name":"Crocin <650>"}`)))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	input := `[
  {"name": "crocin", "url": "` + srv.URL + `/drug"},
  {"name": "gone", "url": "` + srv.URL + `/gone"},
  {"name": "no url"},
  {"name": "slow", "url": "` + srv.URL + `/slow"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meds.json"), []byte(input), 0o644))

	history, err := db.Open(filepath.Join(dir, "enricher.db"))
	require.NoError(t, err)
	defer history.Close()

	store := storage.New(dir)
	d := New(Config{
		FileName:       "meds.json",
		End:            EndOfCollection,
		Timeout:        100 * time.Millisecond,
		Delay:          time.Millisecond,
		PersistRetries: 1,
	}, store, fetcher.NewFetcher(fetcher.Options{}), nil, WithRecorder(history))

	summary, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Enriched)
	assert.Equal(t, 1, summary.HTTPErrors)
	assert.Equal(t, 1, summary.MissingURL)
	assert.Equal(t, 1, summary.Timeouts)

	coll, err := store.Load("meds.json")
	require.NoError(t, err)
	require.Len(t, coll, 4)
	meta, _ := coll[0].MetaData()
	assert.Contains(t, string(meta), `"Crocin <650>"`)
	for _, i := range []int{1, 2, 3} {
		meta, ok := coll[i].MetaData()
		require.True(t, ok)
		assert.Equal(t, `{}`, string(meta))
	}

	raw, err := os.ReadFile(store.Path("meds.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"name\": \"crocin\","))

	logData, err := os.ReadFile(store.LogPath("meds.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(logData)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "HTTP 404 Not Found")
	assert.Contains(t, lines[1], "missing url")
	assert.Contains(t, lines[2], "timed out")

	runs, err := history.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 4, runs[0].Summary.Visited)

	attempts, err := history.GetAttempts(runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, attempts, 4)
}
