package market

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/content"
	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/pkg/logging"
	"github.com/onepostnft/marketd/pkg/telemetry"
)

// contentResolver resolves a content hash to pinned metadata, or nil.
type contentResolver interface {
	Resolve(ctx context.Context, hash string) *content.Metadata
}

// Mapper converts raw chain tuples into Posts. It is the only component that
// touches raw tuples, so all defensive coercions live here: nil big ints read
// as zero and on-chain second timestamps become millisecond epochs.
type Mapper struct {
	resolver contentResolver
	logger   *zap.Logger
}

// NewMapper creates a mapper backed by the given content resolver.
func NewMapper(resolver contentResolver) *Mapper {
	return &Mapper{
		resolver: resolver,
		logger:   logging.GetLogger().With(zap.String("component", "post-mapper")),
	}
}

// ToPost maps one raw tuple, resolving its content as part of mapping. A
// failed resolution yields a placeholder post, never an error.
func (m *Mapper) ToPost(ctx context.Context, raw onepost.Post) Post {
	post := Post{
		ContentHash:  raw.ContentHash,
		Author:       raw.Author.Hex(),
		CurrentOwner: raw.CurrentOwner.Hex(),
		IsForSale:    raw.IsForSale,
		TokenID:      "0",
		Price:        "0",
	}
	if raw.TokenId != nil {
		post.TokenID = raw.TokenId.String()
	}
	// The raw listed price is reported even when the token is not for sale;
	// zeroing stale prices here would hide contract state from consumers.
	if raw.Price != nil {
		post.Price = raw.Price.String()
	}
	if raw.Timestamp != nil {
		post.Timestamp = raw.Timestamp.Int64() * 1000
	}

	post.Content = content.DisplayText(m.resolver.Resolve(ctx, raw.ContentHash))
	return post
}

// ToPosts maps a batch, resolving content for every item concurrently so the
// batch is bounded by its slowest item rather than the sum. One item's
// resolution failure never cancels its siblings; input order is preserved.
func (m *Mapper) ToPosts(ctx context.Context, raws []onepost.Post) []Post {
	ctx, span := telemetry.StartSpan(ctx, "market.map_posts")
	defer span.End()

	posts := make([]Post, len(raws))
	var wg sync.WaitGroup
	for i, raw := range raws {
		wg.Add(1)
		go func(i int, raw onepost.Post) {
			defer wg.Done()
			posts[i] = m.ToPost(ctx, raw)
		}(i, raw)
	}
	wg.Wait()
	return posts
}
