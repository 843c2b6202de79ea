package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wowcampus/auth-api/internal/models"
)

const blacklistKeyPrefix = "auth:blacklist:"

type lookupMetrics interface {
	RecordBlacklistLookup(cacheHit bool)
}

// BlacklistRepository persists digests of access tokens invalidated
// before their natural expiry. Postgres is the source of truth; Redis
// is an optional write-through fast path for the membership check
// that runs on every authenticated request. With Redis down the check
// still answers correctly from Postgres, just slower.
type BlacklistRepository struct {
	db      *sqlx.DB
	cache   *redis.Client
	logger  *zap.Logger
	metrics lookupMetrics
}

// NewBlacklistRepository constructs a blacklist repository. cache and
// metrics may be nil.
func NewBlacklistRepository(db *sqlx.DB, cache *redis.Client, logger *zap.Logger, metrics lookupMetrics) *BlacklistRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlacklistRepository{db: db, cache: cache, logger: logger, metrics: metrics}
}

// Add records the digest. Inserting the same digest twice is a no-op,
// so logout stays safely repeatable.
func (r *BlacklistRepository) Add(ctx context.Context, entry *models.BlacklistedToken) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO token_blacklist (id, token_hash, user_id, expires_at, reason, created_at)
		VALUES (:id, :token_hash, :user_id, :expires_at, :reason, :created_at)
		ON CONFLICT (token_hash) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	if r.cache != nil {
		ttl := time.Until(entry.ExpiresAt)
		if ttl > 0 {
			if err := r.cache.Set(ctx, blacklistKeyPrefix+entry.TokenHash, entry.Reason, ttl).Err(); err != nil {
				r.logger.Warn("failed to cache blacklist entry", zap.Error(err))
			}
		}
	}

	return nil
}

// IsBlacklisted reports whether the digest belongs to a token that
// was invalidated and has not yet passed its natural expiry.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	if r.cache != nil {
		n, err := r.cache.Exists(ctx, blacklistKeyPrefix+tokenHash).Result()
		if err == nil && n > 0 {
			r.recordLookup(true)
			return true, nil
		}
		if err != nil {
			r.logger.Warn("blacklist cache lookup failed, falling back to database", zap.Error(err))
		}
		r.recordLookup(false)
	}

	const query = `SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token_hash = $1 AND expires_at > $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, tokenHash, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return exists, nil
}

func (r *BlacklistRepository) recordLookup(cacheHit bool) {
	if r.metrics != nil {
		r.metrics.RecordBlacklistLookup(cacheHit)
	}
}

// DeleteExpired removes rows whose expiry has passed. An expired
// access token is rejected by the codec anyway, so removal never
// affects correctness.
func (r *BlacklistRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM token_blacklist WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklist entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
