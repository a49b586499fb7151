package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/util"
	"go.uber.org/zap"
)

// ErrDisallowed is returned for feeds that robots.txt forbids fetching
var ErrDisallowed = errors.New("disallowed by robots.txt")

// HTTPSource serves evidence from remote feeds in the evidence file
// layout. Feeds are fetched once, on first use; a failed fetch is retried
// on the next call.
type HTTPSource struct {
	feeds      []string
	httpClient *http.Client
	robots     *util.RobotsChecker
	userAgent  string
	maxBytes   int64
	logger     *zap.Logger

	mu     sync.Mutex
	loaded *FileSource
}

// IsFeedURL reports whether an evidence argument names a remote feed
func IsFeedURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// NewHTTPSource creates a source for feeds
func NewHTTPSource(feeds []string, cfg model.SourcesConfig, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := model.DefaultConfig().Sources
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaults.MaxBytes
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, ""),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	s := &HTTPSource{
		feeds:      append([]string(nil), feeds...),
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBytes,
		logger:     logger.With(zap.String("component", "source")),
	}
	if cfg.RespectRobots {
		s.robots = util.NewRobotsChecker(client, cfg.UserAgent, cfg.Timeout)
	}
	return s
}

// Load fetches every feed and returns their merged items
func (s *HTTPSource) Load(ctx context.Context) (*FileSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded != nil {
		return s.loaded, nil
	}

	loaded := &FileSource{items: make(map[string][]model.EvidenceItem)}
	for _, feed := range s.feeds {
		body, isJSON, err := s.fetch(ctx, feed)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed, err)
		}
		if err := loaded.add(feed, body, isJSON); err != nil {
			return nil, err
		}
		s.logger.Debug("feed loaded", zap.String("feed", feed), zap.Int("bytes", len(body)))
	}

	s.loaded = loaded
	return loaded, nil
}

// List implements Source
func (s *HTTPSource) List(ctx context.Context, category string, window model.DateRange) ([]model.EvidenceItem, error) {
	loaded, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return loaded.List(ctx, category, window)
}

// fetch retrieves one feed body and reports whether it is JSON
func (s *HTTPSource) fetch(ctx context.Context, rawURL string) ([]byte, bool, error) {
	if s.robots != nil {
		allowed, _, err := s.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, false, err
		}
		if !allowed {
			return nil, false, ErrDisallowed
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, text/yaml;q=0.9, */*;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	// one byte past the limit detects truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, false, fmt.Errorf("feed exceeds %d bytes", s.maxBytes)
	}

	return body, isJSONFeed(resp), nil
}

// isJSONFeed decides the decoder from the content type, falling back to
// the URL's extension
func isJSONFeed(resp *http.Response) bool {
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return true
	}
	u := resp.Request.URL
	if u == nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".json")
}

var _ Source = (*HTTPSource)(nil)
