package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/todo-forge/internal/apperr"
)

const (
	tokenKeyPrefix     = "token:"
	userTokenKeyPrefix = "user-token:"
)

// RedisTokenStore はトークンを Redis に保存します。
//
//	token:<key>       -> ユーザーID
//	user-token:<id>   -> key
//
// どちらも有効期限なしで保存します。
type RedisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore は RedisTokenStore を作成します。
func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) GetOrCreate(ctx context.Context, userID int64) (string, error) {
	userKey := userTokenKey(userID)
	for {
		existing, err := s.rdb.Get(ctx, userKey).Result()
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, redis.Nil) {
			return "", err
		}

		key, err := generateToken()
		if err != nil {
			return "", err
		}
		// 先に token:<key> を書いてから user-token を確保する。
		// 確保に負けた場合は自分の key を消して既存のものを読み直す。
		if err := s.rdb.Set(ctx, tokenKey(key), userID, 0).Err(); err != nil {
			return "", err
		}
		ok, err := s.rdb.SetNX(ctx, userKey, key, 0).Result()
		if err != nil {
			_ = s.rdb.Del(ctx, tokenKey(key)).Err()
			return "", err
		}
		if ok {
			return key, nil
		}
		if err := s.rdb.Del(ctx, tokenKey(key)).Err(); err != nil {
			return "", err
		}
	}
}

func (s *RedisTokenStore) Lookup(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, apperr.NotFound("Token")
	}
	raw, err := s.rdb.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperr.NotFound("Token")
		}
		return 0, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt token record %s: %w", tokenKey(token), err)
	}
	return userID, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, token string) error {
	key := tokenKey(token)
	for {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return apperr.NotFound("Token")
				}
				return err
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt token record %s: %w", key, err)
			}

			userKey := userTokenKey(userID)
			if err := tx.Watch(ctx, userKey).Err(); err != nil {
				return err
			}
			current, err := tx.Get(ctx, userKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				if current == token {
					pipe.Del(ctx, userKey)
				}
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

func userTokenKey(userID int64) string {
	return userTokenKeyPrefix + strconv.FormatInt(userID, 10)
}
