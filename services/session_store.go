package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kendall-kelly/checkout-flow-api/config"
	"github.com/kendall-kelly/checkout-flow-api/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DatabaseSessionStore keeps guest session bindings in the
// guest_session_orders table
type DatabaseSessionStore struct {
	db *gorm.DB
}

// NewDatabaseSessionStore creates a session store backed by db
func NewDatabaseSessionStore(db *gorm.DB) *DatabaseSessionStore {
	return &DatabaseSessionStore{db: db}
}

// Bind grants the session access to the order. Binding twice is a no-op.
func (s *DatabaseSessionStore) Bind(ctx context.Context, token string, orderID uint) error {
	binding := models.GuestSessionOrder{SessionToken: token, OrderID: orderID}
	err := config.DBFromContext(ctx, s.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&binding).Error
	if err != nil {
		return fmt.Errorf("bind session to order %d: %w", orderID, err)
	}
	return nil
}

// HasOrder reports whether the session may access the order
func (s *DatabaseSessionStore) HasOrder(ctx context.Context, token string, orderID uint) (bool, error) {
	var count int64
	err := config.DBFromContext(ctx, s.db).
		Model(&models.GuestSessionOrder{}).
		Where("session_token = ? AND order_id = ?", token, orderID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("look up session binding: %w", err)
	}
	return count > 0, nil
}

// Orders lists the orders bound to the session
func (s *DatabaseSessionStore) Orders(ctx context.Context, token string) ([]uint, error) {
	var ids []uint
	err := config.DBFromContext(ctx, s.db).
		Model(&models.GuestSessionOrder{}).
		Where("session_token = ?", token).
		Order("order_id").
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list session orders: %w", err)
	}
	return ids, nil
}

// RedisSessionStore keeps guest session bindings in Redis sets that expire
// after a period of inactivity
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// DefaultSessionTTL is how long an idle guest session keeps its orders
const DefaultSessionTTL = 30 * 24 * time.Hour

// NewRedisSessionStore creates a session store on client
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// NewRedisClient connects to the Redis server named by url and checks it responds
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func sessionKey(token string) string {
	return "checkout:session:" + token
}

// Bind grants the session access to the order and refreshes its expiry
func (s *RedisSessionStore) Bind(ctx context.Context, token string, orderID uint) error {
	key := sessionKey(token)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, orderID)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("bind session to order %d: %w", orderID, err)
	}
	return nil
}

// HasOrder reports whether the session may access the order
func (s *RedisSessionStore) HasOrder(ctx context.Context, token string, orderID uint) (bool, error) {
	ok, err := s.client.SIsMember(ctx, sessionKey(token), orderID).Result()
	if err != nil {
		return false, fmt.Errorf("look up session binding: %w", err)
	}
	return ok, nil
}

// Orders lists the orders bound to the session
func (s *RedisSessionStore) Orders(ctx context.Context, token string) ([]uint, error) {
	members, err := s.client.SMembers(ctx, sessionKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("list session orders: %w", err)
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt session member %q: %w", m, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
