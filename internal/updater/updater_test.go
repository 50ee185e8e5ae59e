package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/config"
	"phishguard/internal/encoder"
	"phishguard/internal/repository"
)

func setupTestDB(t *testing.T) *repository.DB {
	t.Helper()
	db := &repository.DB{}
	require.NoError(t, db.InitDB(":memory:"))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun_ETagCaching(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == "v1.0" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", "v1.0")
		w.Write([]byte("URL,Domain,TLD\nhttps://a.com,a.com,com\nhttps://b.co.uk,b.co.uk,co.uk\nhttps://c.com,c.com,com\n"))
	}))
	defer srv.Close()

	db := setupTestDB(t)
	enc, err := encoder.New(db)
	require.NoError(t, err)

	seeds := []config.SeedConfig{{
		Name:    "dataset",
		URL:     srv.URL,
		Format:  "csv",
		Columns: map[string]string{"Domain": "Domain", "TLD": "TLD"},
	}}

	results := Run(context.Background(), db, enc, seeds, 0)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 6, results[0].Terms)
	assert.Equal(t, 5, results[0].Added)
	assert.Equal(t, "v1.0", db.GetETag("dataset_"+srv.URL))

	assert.Equal(t, []string{"a.com", "b.co.uk", "c.com"}, enc.Terms(encoder.AxisDomain))
	assert.Equal(t, []string{"com", "co.uk"}, enc.Terms(encoder.AxisTLD))

	// ids were written through to the store
	persisted, err := db.LoadTerms(string(encoder.AxisTLD))
	require.NoError(t, err)
	assert.Equal(t, []string{"com", "co.uk"}, persisted)

	results = Run(context.Background(), db, enc, seeds, 0)
	assert.True(t, results[0].Cached)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 3, enc.Size(encoder.AxisDomain))
}

func TestRun_SequentialSources(t *testing.T) {
	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("com\nnet\n"))
	}))
	defer srvA.Close()
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("org\ncom\n"))
	}))
	defer srvB.Close()

	db := setupTestDB(t)
	enc, err := encoder.New(db)
	require.NoError(t, err)

	Run(context.Background(), db, enc, []config.SeedConfig{
		{Name: "a", URL: srvA.URL, Format: "text", Axis: "TLD"},
		{Name: "b", URL: srvB.URL, Format: "text", Axis: "TLD"},
	}, 0)

	assert.Equal(t, []string{"com", "net", "org"}, enc.Terms(encoder.AxisTLD))
	id, ok := enc.Lookup(encoder.AxisTLD, "org")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestRun_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	db := setupTestDB(t)
	enc, err := encoder.New(db)
	require.NoError(t, err)

	results := Run(context.Background(), db, enc, []config.SeedConfig{
		{Name: "broken", URL: srv.URL, Format: "text", Axis: "TLD"},
	}, 0)
	assert.Error(t, results[0].Err)
	assert.Zero(t, enc.Size(encoder.AxisTLD))
	assert.Empty(t, db.GetETag("broken_"+srv.URL))
}

func TestRun_StalledFeedTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// headers go out, the body never finishes
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("com\n"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	db := setupTestDB(t)
	enc, err := encoder.New(db)
	require.NoError(t, err)

	start := time.Now()
	results := Run(context.Background(), db, enc, []config.SeedConfig{
		{Name: "stalled", URL: srv.URL, Format: "text", Axis: "TLD"},
	}, 200*time.Millisecond)

	assert.Error(t, results[0].Err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, enc.Size(encoder.AxisTLD))
	assert.Empty(t, db.GetETag("stalled_"+srv.URL))
}
