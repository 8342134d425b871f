package vocab

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoVocabulary is returned when no source could supply entries
var ErrNoVocabulary = errors.New("no vocabulary source available")

//go:embed data/taiwan_china_vocabs.json
var bundledVocabs []byte

// Provider supplies the vocabulary collection
type Provider interface {
	Load(ctx context.Context) ([]Entry, error)
	Name() string
}

// BundledProvider serves the dataset compiled into the binary
type BundledProvider struct{}

func NewBundledProvider() *BundledProvider {
	return &BundledProvider{}
}

func (p *BundledProvider) Name() string { return "bundled" }

func (p *BundledProvider) Load(ctx context.Context) ([]Entry, error) {
	entries, _, err := ParseEntries(bundledVocabs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bundled vocabulary: %w", err)
	}
	return entries, nil
}

// RemoteProvider downloads the vocabulary from an HTTP endpoint
type RemoteProvider struct {
	url    string
	client *http.Client
	logger *logrus.Entry
}

func NewRemoteProvider(url string, timeout time.Duration, logger *logrus.Entry) *RemoteProvider {
	return &RemoteProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.WithField("component", "vocab_remote"),
	}
}

func (p *RemoteProvider) Name() string { return "remote" }

// Load fetches and parses the remote list
func (p *RemoteProvider) Load(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	entries, skipped, err := ParseEntries(body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		p.logger.WithFields(logrus.Fields{
			"url":     p.url,
			"skipped": skipped,
		}).Debug("Skipped malformed vocabulary rows")
	}
	return entries, nil
}

// ChainProvider tries each provider in order and returns the first non-empty result
type ChainProvider struct {
	providers []Provider
	logger    *logrus.Entry
}

func NewChainProvider(logger *logrus.Entry, providers ...Provider) *ChainProvider {
	return &ChainProvider{
		providers: providers,
		logger:    logger.WithField("component", "vocab_chain"),
	}
}

func (c *ChainProvider) Name() string { return "chain" }

func (c *ChainProvider) Load(ctx context.Context) ([]Entry, error) {
	var lastErr error
	for _, p := range c.providers {
		entries, err := p.Load(ctx)
		if err != nil {
			c.logger.WithError(err).WithField("source", p.Name()).Debug("Vocabulary source failed, falling back")
			lastErr = err
			continue
		}
		if len(entries) == 0 {
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"source":  p.Name(),
			"entries": len(entries),
		}).Info("Loaded vocabulary")
		return entries, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoVocabulary, lastErr)
	}
	return nil, ErrNoVocabulary
}
