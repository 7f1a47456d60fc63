package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/innoshop/platform/internal/core/domain"
)

// TokenStore keeps single-use tokens in Redis.
//
//	token:<purpose>:<account_id>:<sha256(token)>  -> "1" with the purpose TTL
//	tokens:<purpose>:<account_id>                   -> set of the keys above
//
// Only digests are stored. Consume is a DEL inside MULTI, so exactly one
// caller can win.
type TokenStore struct {
	client  *redis.Client
	windows map[domain.TokenPurpose]time.Duration
}

// NewTokenStore creates a TokenStore with one expiry window per purpose.
func NewTokenStore(client *redis.Client, windows map[domain.TokenPurpose]time.Duration) *TokenStore {
	return &TokenStore{client: client, windows: windows}
}

func (s *TokenStore) Save(ctx context.Context, purpose domain.TokenPurpose, accountID, token string) error {
	ttl, ok := s.windows[purpose]
	if !ok || ttl <= 0 {
		return fmt.Errorf("token store: no window configured for %s", purpose)
	}

	key := s.tokenKey(purpose, accountID, token)
	idx := s.indexKey(purpose, accountID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, "1", ttl)
	pipe.SAdd(ctx, idx, key)
	pipe.Expire(ctx, idx, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.NewStoreError("save token", err)
	}
	return nil
}

func (s *TokenStore) Consume(ctx context.Context, purpose domain.TokenPurpose, accountID, token string) (bool, error) {
	key := s.tokenKey(purpose, accountID, token)

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, key)
	pipe.SRem(ctx, s.indexKey(purpose, accountID), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, domain.NewStoreError("consume token", err)
	}
	return del.Val() == 1, nil
}

func (s *TokenStore) RevokeAll(ctx context.Context, purpose domain.TokenPurpose, accountID string) error {
	idx := s.indexKey(purpose, accountID)

	keys, err := s.client.SMembers(ctx, idx).Result()
	if err != nil {
		return domain.NewStoreError("revoke tokens", err)
	}
	if err := s.client.Del(ctx, append(keys, idx)...).Err(); err != nil {
		return domain.NewStoreError("revoke tokens", err)
	}
	return nil
}

func (s *TokenStore) tokenKey(purpose domain.TokenPurpose, accountID, token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("token:%s:%s:%s", purpose, accountID, hex.EncodeToString(sum[:]))
}

func (s *TokenStore) indexKey(purpose domain.TokenPurpose, accountID string) string {
	return fmt.Sprintf("tokens:%s:%s", purpose, accountID)
}
