// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/constants"
	"github.com/taibuivan/recipehub/internal/platform/sec"
)

// RedisOneTimeTokenRepository implements OneTimeTokenRepository using Redis.
//
// Keys are "<prefix><sha256(token)>" so that a dump of Redis cannot be
// replayed. Expiry is delegated to the key TTL and single use to GETDEL.
type RedisOneTimeTokenRepository struct {
	client         *redis.Client
	prefix         string
	invalidMessage string
}

// NewResetTokenRepository creates the Redis-backed store for password reset tokens.
func NewResetTokenRepository(client *redis.Client) *RedisOneTimeTokenRepository {
	return &RedisOneTimeTokenRepository{
		client:         client,
		prefix:         constants.RedisPrefixResetToken,
		invalidMessage: msgInvalidResetToken,
	}
}

// NewVerificationTokenRepository creates the Redis-backed store for email verification tokens.
func NewVerificationTokenRepository(client *redis.Client) *RedisOneTimeTokenRepository {
	return &RedisOneTimeTokenRepository{
		client:         client,
		prefix:         constants.RedisPrefixVerifyToken,
		invalidMessage: msgInvalidVerifyToken,
	}
}

func (repository *RedisOneTimeTokenRepository) key(token string) string {
	return repository.prefix + sec.HashToken(token)
}

/*
Save stores a token digest with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisOneTimeTokenRepository) Save(context context.Context, token, userID string, ttl time.Duration) error {
	if err := repository.client.Set(context, repository.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_one_time_token_save_failed: %w", err)
	}
	return nil
}

/*
Consume returns the userID for a token and deletes it in the same command.

Two concurrent consumers of the same token cannot both succeed.

Returns:
  - string: Original UserID
  - error: apperr.InvalidToken if absent, expired or used; connectivity errors otherwise
*/
func (repository *RedisOneTimeTokenRepository) Consume(context context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.InvalidToken(repository.invalidMessage)
	}

	userID, err := repository.client.GetDel(context, repository.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.InvalidToken(repository.invalidMessage)
		}
		return "", fmt.Errorf("redis_one_time_token_consume_failed: %w", err)
	}

	return userID, nil
}
