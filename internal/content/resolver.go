// Package content resolves content-addressed post metadata from public IPFS
// gateways. Gateways are tried in a fixed order; the first parseable answer
// wins, and exhausting every gateway yields a nil result rather than an
// error, so one bad hash never aborts a batch of post loads.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/cache"
	"github.com/onepostnft/marketd/pkg/config"
	"github.com/onepostnft/marketd/pkg/logging"
	"github.com/onepostnft/marketd/pkg/telemetry"
)

// Display strings for unresolvable or image-only payloads.
const (
	ImagePlaceholder = "📸 Image Post"
	NoContentText    = "No content available"
	UnavailableText  = "Failed to load content from IPFS"
)

// Metadata is the off-chain payload pinned for a post.
type Metadata struct {
	Content   string `json:"content,omitempty"`
	Image     string `json:"image,omitempty"` // data URI or URL
	Author    string `json:"author,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// DisplayText maps a resolution result to the text shown for a post: the
// pinned content verbatim, a placeholder for image-only posts, or the
// unavailable marker when resolution failed entirely (meta == nil).
func DisplayText(meta *Metadata) string {
	switch {
	case meta == nil:
		return UnavailableText
	case meta.Content != "":
		return meta.Content
	case meta.Image != "":
		return ImagePlaceholder
	default:
		return NoContentText
	}
}

// Resolver tries a single source for a content hash.
type Resolver interface {
	Name() string
	TryFetch(ctx context.Context, hash string) (*Metadata, error)
}

// GatewayResolver fetches GET <base>/ipfs/<hash> from one public gateway.
type GatewayResolver struct {
	base   string
	client *http.Client
}

// NewGatewayResolver builds a resolver for one gateway host.
func NewGatewayResolver(base string, timeout time.Duration) *GatewayResolver {
	return &GatewayResolver{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the gateway base URL.
func (g *GatewayResolver) Name() string {
	return g.base
}

// TryFetch fetches and decodes the metadata JSON from this gateway.
func (g *GatewayResolver) TryFetch(ctx context.Context, hash string) (*Metadata, error) {
	url := fmt.Sprintf("%s/ipfs/%s", g.base, hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &meta, nil
}

// Chain composes resolvers in a fixed order with a uniform per-attempt
// timeout. Resolved metadata is content-addressed and immutable, so
// successful resolutions are cached.
type Chain struct {
	resolvers []Resolver
	timeout   time.Duration
	cache     *cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewChain builds the fallback chain from the configured gateway list.
func NewChain(cfg *config.ContentConfig, metaCache *cache.Cache) *Chain {
	resolvers := make([]Resolver, 0, len(cfg.Gateways))
	for _, gw := range cfg.Gateways {
		resolvers = append(resolvers, NewGatewayResolver(gw, cfg.FetchTimeout))
	}
	return &Chain{
		resolvers: resolvers,
		timeout:   cfg.FetchTimeout,
		cache:     metaCache,
		cacheTTL:  cfg.CacheTTL,
		logger:    logging.GetLogger().With(zap.String("component", "content-resolver")),
	}
}

// NewChainFromResolvers builds a chain over explicit resolvers.
func NewChainFromResolvers(timeout time.Duration, resolvers ...Resolver) *Chain {
	return &Chain{
		resolvers: resolvers,
		timeout:   timeout,
		logger:    logging.GetLogger().With(zap.String("component", "content-resolver")),
	}
}

// Resolve tries each resolver in order and returns the first decoded
// metadata. It returns nil, never an error, when every resolver fails: the
// caller renders the unavailable marker instead of aborting its batch.
func (c *Chain) Resolve(ctx context.Context, hash string) *Metadata {
	ctx, span := telemetry.StartSpan(ctx, "content.resolve")
	defer span.End()

	if hash == "" {
		return nil
	}

	if meta := c.cached(ctx, hash); meta != nil {
		return meta
	}

	for _, r := range c.resolvers {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		meta, err := r.TryFetch(attemptCtx, hash)
		cancel()
		if err != nil {
			c.logger.Debug("Gateway attempt failed",
				zap.String("gateway", r.Name()),
				zap.String("hash", hash),
				zap.Error(err))
			continue
		}
		c.store(ctx, hash, meta)
		return meta
	}

	c.logger.Warn("Content resolution exhausted all gateways", zap.String("hash", hash))
	return nil
}

func (c *Chain) cached(ctx context.Context, hash string) *Metadata {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, cache.HashKey("content", hash))
	if err != nil {
		return nil
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return &meta
}

func (c *Chain) store(ctx context.Context, hash string, meta *Metadata) {
	if c.cache == nil || meta == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cache.HashKey("content", hash), string(raw), c.cacheTTL); err != nil && err != cache.ErrCacheDisabled {
		c.logger.Debug("Failed to cache resolved content", zap.Error(err))
	}
}
