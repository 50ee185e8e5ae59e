package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishguard/internal/analysis"
	"phishguard/internal/config"
	"phishguard/internal/encoder"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.Default()
	c.Vocabulary.DBPath = filepath.Join(t.TempDir(), "phishguard.db")
	c.Fetch.TimeoutSeconds = 2
	c.Fetch.RobotsTimeoutSeconds = 1
	return c
}

func TestApp_ExtractPersistsVocabulary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\n"))
			return
		}
		fmt.Fprint(w, "<html><head><title>Home</title></head><body><a href='/x'>x</a></body></html>")
	}))
	defer srv.Close()

	c := testConfig(t)

	a, err := newApp(c, false)
	require.NoError(t, err)
	vec, err := a.engine.Extract(context.Background(), srv.URL+"/index.html")
	require.NoError(t, err)
	assert.Equal(t, 1.0, vec["Robots"])
	assert.Equal(t, 1.0, vec["HasTitle"])
	a.close()

	// ids survive a restart
	b, err := newApp(c, false)
	require.NoError(t, err)
	defer b.close()
	assert.Equal(t, 1, b.encoder.Size(encoder.AxisDomain))
}

func TestApp_ListsWithoutModel(t *testing.T) {
	c := testConfig(t)
	c.Lists.Blacklist = []string{"evil.test"}

	a, err := newApp(c, false)
	require.NoError(t, err)
	defer a.close()
	assert.False(t, a.engine.HasModel())

	v, err := a.engine.Decision(context.Background(), "http://login.evil.test/")
	require.NoError(t, err)
	assert.True(t, v.Phishing)
	assert.Equal(t, analysis.SourceBlacklist, v.Source)

	stored, err := a.db.GetVerdict("http://login.evil.test/")
	require.NoError(t, err)
	assert.True(t, stored.Phishing)
}

func TestPrintJSON_KeepsColumnOrder(t *testing.T) {
	c := testConfig(t)
	a, err := newApp(c, false)
	require.NoError(t, err)
	defer a.close()

	// unreachable host: content fields fall back, vector stays complete
	vec, err := a.engine.Extract(context.Background(), "http://127.0.0.1:1/")
	require.NoError(t, err)

	var out bytes.Buffer
	extractCmd.SetOut(&out)
	require.NoError(t, printJSON(extractCmd, vec))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Len(t, decoded, len(vec))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("{\n  \"URLLength\": 19,")))
}
