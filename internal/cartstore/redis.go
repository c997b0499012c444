package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyGuestCart = "guest:cart:%s"

var TTLGuestCart = 7 * 24 * time.Hour

// カートの保存先。ゲストはRedis、テストはモック。
type Store interface {
	Get(ctx context.Context, token string) (Cart, error)
	Save(ctx context.Context, token string, cart Cart) error
	Clear(ctx context.Context, token string) error
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	r := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &RedisStore{rdb: r}
}

// 無ければ空カートを返す
func (s *RedisStore) Get(ctx context.Context, token string) (Cart, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(keyGuestCart, token)).Result()
	if errors.Is(err, redis.Nil) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, err
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, cart Cart) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, fmt.Sprintf(keyGuestCart, token), b, TTLGuestCart).Err()
}

func (s *RedisStore) Clear(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keyGuestCart, token)).Err()
}
