// Package ledger keeps an append-only log of locally-initiated purchases. It
// backstops the sold-history view until on-chain event indexing covers every
// sale; it is never the source of truth for ownership. No eviction and no
// size bound: acceptable for a stand-in, not a design to scale.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/onepostnft/marketd/pkg/config"
	"github.com/onepostnft/marketd/pkg/logging"
)

// ErrLedgerDisabled is returned by Append when no backing store is configured.
var ErrLedgerDisabled = fmt.Errorf("sold ledger is disabled")

const recordsKey = "onepost:sold_records"

// SoldRecord is one observed purchase.
type SoldRecord struct {
	TokenID         string `json:"tokenId"`
	Buyer           string `json:"buyer"`
	Timestamp       int64  `json:"timestamp"` // milliseconds since epoch
	TransactionHash string `json:"transactionHash"`
}

// Store is a redis-list backed sold-record log.
type Store struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates the ledger store. Returns (nil, nil) when redis is disabled;
// a nil *Store is safe to use and behaves as an empty, write-rejecting log.
func New(cfg *config.RedisConfig) (*Store, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Sold ledger disabled (no redis)")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logging.GetLogger().With(zap.String("component", "sold-ledger")),
	}, nil
}

// Append adds a record to the log.
func (s *Store) Append(ctx context.Context, rec SoldRecord) error {
	if s == nil || s.client == nil {
		return ErrLedgerDisabled
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode sold record: %w", err)
	}
	if err := s.client.RPush(ctx, recordsKey, raw).Err(); err != nil {
		return fmt.Errorf("failed to append sold record: %w", err)
	}
	return nil
}

// List returns all recorded purchases in append order. A missing, unreachable
// or corrupt store reads as an empty log: individual undecodable entries are
// skipped and store errors degrade to an empty slice, never an error.
func (s *Store) List(ctx context.Context) []SoldRecord {
	if s == nil || s.client == nil {
		return nil
	}
	raws, err := s.client.LRange(ctx, recordsKey, 0, -1).Result()
	if err != nil {
		s.logger.Warn("Failed to read sold ledger, treating as empty", zap.Error(err))
		return nil
	}

	records := make([]SoldRecord, 0, len(raws))
	for _, raw := range raws {
		var rec SoldRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("Skipping corrupt sold record", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
