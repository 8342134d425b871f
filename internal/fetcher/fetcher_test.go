package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/fetcher"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(logger)
}

func testConfig() config.FetcherConfig {
	return config.FetcherConfig{
		Timeout:             5 * time.Second,
		UserAgent:           "VocabularyRadar/1.0",
		EnableRobotsCheck:   true,
		RobotsCacheDuration: time.Hour,
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "VocabularyRadar/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>新聞</title></head><body><p>軟件更新</p></body></html>`))
	})
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, r *http.Request) {
		t.Error("disallowed page must not be requested")
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetch(t *testing.T) {
	server := newServer(t)
	f := fetcher.NewFetcher(testConfig(), testLogger())

	page, err := f.Fetch(context.Background(), server.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "新聞", page.Title)
	require.NotNil(t, page.Document)
	assert.Contains(t, page.Document.String(), "軟件更新")
}

func TestFetch_TruncatesAtMaxBodyBytes(t *testing.T) {
	server := newServer(t)
	cfg := testConfig()
	cfg.MaxBodyBytes = len("<html><head><title>新聞</title></head>")
	f := fetcher.NewFetcher(cfg, testLogger())

	page, err := f.Fetch(context.Background(), server.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, "新聞", page.Title)
	assert.NotContains(t, page.Document.String(), "軟件更新")
}

func TestFetch_BlockedByRobots(t *testing.T) {
	server := newServer(t)
	f := fetcher.NewFetcher(testConfig(), testLogger())

	_, err := f.Fetch(context.Background(), server.URL+"/private/page")
	assert.ErrorIs(t, err, fetcher.ErrBlockedByRobots)
}

func TestFetch_NonOK(t *testing.T) {
	server := newServer(t)
	f := fetcher.NewFetcher(testConfig(), testLogger())

	page, err := f.Fetch(context.Background(), server.URL+"/missing")
	assert.Error(t, err)
	require.NotNil(t, page)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
}

func TestFetch_RejectsNonHTML(t *testing.T) {
	server := newServer(t)
	f := fetcher.NewFetcher(testConfig(), testLogger())

	_, err := f.Fetch(context.Background(), server.URL+"/json")
	assert.Error(t, err)
}

func TestFetch_InvalidURLs(t *testing.T) {
	f := fetcher.NewFetcher(testConfig(), testLogger())

	for _, raw := range []string{"ftp://example.com/file", "http://", "::bad"} {
		_, err := f.Fetch(context.Background(), raw)
		assert.Error(t, err, raw)
	}
}

func TestFromHTML(t *testing.T) {
	page, err := fetcher.FromHTML(`<title>Draft</title><p>hello</p>`, "about:blank")
	require.NoError(t, err)
	assert.Equal(t, "Draft", page.Title)
	assert.Equal(t, "about:blank", page.URL)
	assert.NotNil(t, page.Document.Body())
}
