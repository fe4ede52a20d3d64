package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/internal/contracts/onepost"
	"github.com/onepostnft/marketd/pkg/logging"
	"github.com/onepostnft/marketd/pkg/telemetry"
)

// soldAtOffsetMillis estimates the sale time of heuristically-classified sold
// posts as one day after mint. True event times come from the indexer.
const soldAtOffsetMillis = 24 * 60 * 60 * 1000

// defaultPageSize is the page size used for full sweeps.
const defaultPageSize = 200

// maxSweepPages caps full sweeps so a runaway contract can't loop us forever.
const maxSweepPages = 50

type filterKind int

const (
	filterAll filterKind = iota
	filterForSale
	filterOwnedBy
	filterSold
)

// Filter selects which posts ListPosts returns.
type Filter struct {
	kind  filterKind
	owner string
}

// FilterAll selects every minted post.
func FilterAll() Filter { return Filter{kind: filterAll} }

// FilterForSale selects posts with an active listing.
func FilterForSale() Filter { return Filter{kind: filterForSale} }

// FilterOwnedBy selects posts currently owned by addr (case-insensitive).
func FilterOwnedBy(addr string) Filter { return Filter{kind: filterOwnedBy, owner: addr} }

// FilterSold selects the heuristic sold view.
func FilterSold() Filter { return Filter{kind: filterSold} }

// postReader is the slice of the chain gateway the query layer uses.
type postReader interface {
	GetAllPosts(ctx context.Context, offset, limit uint32) ([]onepost.Post, error)
	GetAllPostsForSale(ctx context.Context, offset, limit uint32) ([]onepost.Post, error)
	GetPostByTokenId(ctx context.Context, tokenID *big.Int) (onepost.Post, error)
}

// Query aggregates paginated chain reads into deduplicated, filtered post
// lists.
type Query struct {
	reader   postReader
	mapper   *Mapper
	pageSize uint32
	logger   *zap.Logger
}

// NewQuery creates the marketplace query layer.
func NewQuery(reader postReader, mapper *Mapper) *Query {
	return &Query{
		reader:   reader,
		mapper:   mapper,
		pageSize: defaultPageSize,
		logger:   logging.GetLogger().With(zap.String("component", "market-query")),
	}
}

// ListPosts returns the posts selected by filter, deduplicated by token id
// with the first-seen entry winning.
func (q *Query) ListPosts(ctx context.Context, filter Filter) ([]Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "market.list_posts")
	defer span.End()

	switch filter.kind {
	case filterForSale:
		raws, err := q.sweep(ctx, q.reader.GetAllPostsForSale)
		if err != nil {
			return nil, err
		}
		posts := q.mapper.ToPosts(ctx, raws)
		// Defensive re-validation: the for-sale read can trail listing state
		// by a block, so the flag is checked again client-side.
		filtered := posts[:0]
		for _, p := range posts {
			if p.IsForSale {
				filtered = append(filtered, p)
			}
		}
		return dedupeByTokenID(filtered), nil

	case filterOwnedBy:
		if !common.IsHexAddress(filter.owner) {
			return nil, fmt.Errorf("invalid owner address %q", filter.owner)
		}
		raws, err := q.sweep(ctx, q.reader.GetAllPosts)
		if err != nil {
			return nil, err
		}
		posts := q.mapper.ToPosts(ctx, raws)
		owned := posts[:0]
		for _, p := range posts {
			if sameAddress(p.CurrentOwner, filter.owner) {
				owned = append(owned, p)
			}
		}
		return dedupeByTokenID(owned), nil

	case filterSold:
		sold, err := q.SoldPosts(ctx)
		if err != nil {
			return nil, err
		}
		posts := make([]Post, 0, len(sold))
		for _, s := range sold {
			posts = append(posts, s.Post)
		}
		return posts, nil

	default:
		raws, err := q.sweep(ctx, q.reader.GetAllPosts)
		if err != nil {
			return nil, err
		}
		return dedupeByTokenID(q.mapper.ToPosts(ctx, raws)), nil
	}
}

// GetPost returns one post by token id.
func (q *Query) GetPost(ctx context.Context, tokenID *big.Int) (Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "market.get_post")
	defer span.End()

	raw, err := q.reader.GetPostByTokenId(ctx, tokenID)
	if err != nil {
		return Post{}, err
	}
	return q.mapper.ToPost(ctx, raw), nil
}

// Page returns one mapped page without sweeping, for feed-style consumers.
func (q *Query) Page(ctx context.Context, offset, limit uint32) ([]Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "market.page")
	defer span.End()

	raws, err := q.reader.GetAllPosts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return dedupeByTokenID(q.mapper.ToPosts(ctx, raws)), nil
}

// SoldPosts reconstructs the sold view from current state: a post counts as
// sold when its author no longer owns it AND it is not currently listed. A
// token that changed hands but is listed again does not appear. SoldAt is an
// estimate (mint + 24h); consumers needing real sale times should use the
// indexed sale history instead.
func (q *Query) SoldPosts(ctx context.Context) ([]SoldPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "market.sold_posts")
	defer span.End()

	raws, err := q.sweep(ctx, q.reader.GetAllPosts)
	if err != nil {
		return nil, err
	}
	posts := dedupeByTokenID(q.mapper.ToPosts(ctx, raws))

	sold := make([]SoldPost, 0)
	for _, p := range posts {
		if sameAddress(p.Author, p.CurrentOwner) || p.IsForSale {
			continue
		}
		sold = append(sold, SoldPost{
			Post:      p,
			IsSold:    true,
			SoldAt:    p.Timestamp + soldAtOffsetMillis,
			Buyer:     p.CurrentOwner,
			Seller:    p.Author,
			SalePrice: p.Price,
		})
	}
	return sold, nil
}

// sweep reads every page from a paginated view until a short page.
func (q *Query) sweep(ctx context.Context, read func(ctx context.Context, offset, limit uint32) ([]onepost.Post, error)) ([]onepost.Post, error) {
	var all []onepost.Post
	offset := uint32(0)
	for page := 0; page < maxSweepPages; page++ {
		batch, err := read(ctx, offset, q.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read page at offset %d: %w", offset, err)
		}
		all = append(all, batch...)
		if uint32(len(batch)) < q.pageSize {
			return all, nil
		}
		offset += q.pageSize
	}
	q.logger.Warn("Post sweep hit page cap", zap.Int("pages", maxSweepPages))
	return all, nil
}

// dedupeByTokenID collapses duplicate tokens, keeping the first occurrence.
// A token can show up both in a paginated sweep and a targeted fetch; the
// token id is the identity key.
func dedupeByTokenID(posts []Post) []Post {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0]
	for _, p := range posts {
		if _, ok := seen[p.TokenID]; ok {
			continue
		}
		seen[p.TokenID] = struct{}{}
		out = append(out, p)
	}
	return out
}
