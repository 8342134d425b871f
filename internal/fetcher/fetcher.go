// Package fetcher loads web pages into documents that can be highlighted.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/dom"
	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/politeness"
)

// ErrBlockedByRobots is returned when robots.txt disallows the URL
var ErrBlockedByRobots = errors.New("URL blocked by robots.txt")

// defaultMaxBodySize caps how much of a page is read when the config sets no limit
const defaultMaxBodySize = 10 << 20

// Page is a loaded and parsed document
type Page struct {
	URL        string
	Title      string
	StatusCode int
	Document   *dom.Document
}

type Fetcher struct {
	config     config.FetcherConfig
	client     *http.Client
	politeness *politeness.Manager
	logger     *logrus.Entry
}

func NewFetcher(cfg config.FetcherConfig, logger *logrus.Entry) *Fetcher {
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Fetcher{
		config:     cfg,
		client:     client,
		politeness: politeness.NewManager(cfg, client, logger),
		logger:     logger.WithField("component", "fetcher"),
	}
}

// Fetch downloads and parses a webpage
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("only HTTP/HTTPS URLs are supported: %s", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL must have a host: %s", rawURL)
	}

	allowed, err := f.politeness.IsURLAllowed(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s", ErrBlockedByRobots, rawURL)
	}
	if err := f.politeness.Wait(ctx, parsed.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	page := &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return page, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return page, fmt.Errorf("unsupported content type: %s", ct)
	}

	limit := int64(f.config.MaxBodyBytes)
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	doc, err := dom.Parse(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}
	page.Document = doc
	page.Title = doc.Title()

	f.logger.WithFields(logrus.Fields{
		"url":   page.URL,
		"title": page.Title,
	}).Debug("Fetched page")

	return page, nil
}

// FromHTML parses raw markup as a page at sourceURL
func FromHTML(markup, sourceURL string) (*Page, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}
	return &Page{
		URL:        sourceURL,
		Title:      doc.Title(),
		StatusCode: http.StatusOK,
		Document:   doc,
	}, nil
}
