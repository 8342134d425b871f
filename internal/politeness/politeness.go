// Package politeness keeps page loads respectful: robots.txt rules and a
// minimum delay between requests to the same host.
package politeness

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/aronhack/Chinese-Vocabulary-Radar/internal/config"
)

// Manager handles robots.txt checks and per-host pacing
type Manager struct {
	config config.FetcherConfig
	logger *logrus.Entry
	client *http.Client

	mu          sync.Mutex
	robotsCache map[string]*robotsEntry
	lastRequest map[string]time.Time
}

// robotsEntry caches robots.txt data. A nil robots means none was served.
type robotsEntry struct {
	robots    *robotstxt.RobotsData
	fetchTime time.Time
}

// NewManager creates a new politeness manager
func NewManager(cfg config.FetcherConfig, client *http.Client, logger *logrus.Entry) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Manager{
		config:      cfg,
		logger:      logger.WithField("component", "politeness"),
		client:      client,
		robotsCache: make(map[string]*robotsEntry),
		lastRequest: make(map[string]time.Time),
	}
}

// IsURLAllowed checks if URL is allowed according to robots.txt
func (m *Manager) IsURLAllowed(ctx context.Context, rawURL string) (bool, error) {
	if !m.config.EnableRobotsCheck {
		return true, nil
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}

	robotsData, err := m.getRobotsData(ctx, parsedURL)
	if err != nil {
		m.logger.WithError(err).WithField("domain", parsedURL.Host).Warn("Failed to get robots.txt, allowing request")
		return true, nil
	}
	if robotsData == nil {
		return true, nil
	}

	group := robotsData.FindGroup(m.config.UserAgent)
	if group == nil {
		return true, nil
	}

	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path), nil
}

// Wait blocks until a request to host respects the minimum delay, then
// records the request time.
func (m *Manager) Wait(ctx context.Context, host string) error {
	m.mu.Lock()
	last := m.lastRequest[host]
	now := time.Now()
	var wait time.Duration
	if !last.IsZero() {
		if elapsed := now.Sub(last); elapsed < m.config.MinDelay {
			wait = m.config.MinDelay - elapsed
		}
	}
	// Reserve the slot so concurrent callers queue behind this one
	m.lastRequest[host] = now.Add(wait)
	m.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	m.logger.WithFields(logrus.Fields{
		"domain":    host,
		"wait_time": wait,
	}).Debug("Waiting for politeness delay")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// getRobotsData fetches and caches robots.txt for the URL's origin
func (m *Manager) getRobotsData(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	m.mu.Lock()
	entry, exists := m.robotsCache[key]
	m.mu.Unlock()
	if exists && time.Since(entry.fetchTime) < m.config.RobotsCacheDuration {
		return entry.robots, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", m.config.UserAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	var robotsData *robotstxt.RobotsData
	if resp.StatusCode == http.StatusOK {
		robotsData, err = robotstxt.FromResponse(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
		}
	}

	// Cache the result, even if nil for 404s
	m.mu.Lock()
	m.robotsCache[key] = &robotsEntry{
		robots:    robotsData,
		fetchTime: time.Now(),
	}
	m.mu.Unlock()

	return robotsData, nil
}
