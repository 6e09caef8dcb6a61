package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisTokenPrefix = "session:token:"
	redisUserPrefix  = "session:user:"
	redisExpiryKey   = "session:expiry"
)

// RedisStore implements Store over Redis. Each session lives under a token
// key, with a per-user set and a global expiry-sorted zset as the secondary
// indexes. Records are not given a Redis TTL: like the SQL backends, expired
// sessions stay physically present until swept, which keeps the lifecycle's
// expired-token cleanup path observable.
//
// DEL's returned count provides the atomic delete-decides-winner primitive
// the rotation race relies on.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(token string) string            { return redisTokenPrefix + token }
func userKey(userID uuid.UUID) string         { return redisUserPrefix + userID.String() }
func expiryScore(expiresAt time.Time) float64 { return float64(expiresAt.Unix()) }

func (r *RedisStore) Insert(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" || s.UserID == uuid.Nil {
		return ErrInvalidSession
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	// SET NX enforces token uniqueness; the indexes follow in a pipeline. A
	// crash between the two leaves the record reachable by token but not by
	// index, which the next rotation resolves.
	ok, err := r.client.SetNX(ctx, tokenKey(s.Token), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateToken
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, userKey(s.UserID), s.Token)
	pipe.ZAdd(ctx, redisExpiryKey, redis.Z{Score: expiryScore(s.ExpiresAt), Member: s.Token})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) FindByToken(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) DeleteByToken(ctx context.Context, token string) (int64, error) {
	s, err := r.FindByToken(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// DEL decides the winner between concurrent deletes of the same token.
	n, err := r.client.Del(ctx, tokenKey(token)).Result()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, userKey(s.UserID), token)
	pipe.ZRem(ctx, redisExpiryKey, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return n, err
	}
	return n, nil
}

func (r *RedisStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tokens, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, len(tokens))
	members := make([]any, len(tokens))
	for i, token := range tokens {
		keys[i] = tokenKey(token)
		members[i] = token
	}

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, err
	}

	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, redisExpiryKey, members...)
	pipe.Del(ctx, userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (r *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tokens, err := r.client.ZRangeByScore(ctx, redisExpiryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, token := range tokens {
		n, err := r.DeleteByToken(ctx, token)
		if err != nil {
			return deleted, err
		}
		deleted += n
		// The index entry goes regardless: a dangling zset member whose
		// record is already gone still has to be cleared.
		if n == 0 {
			_ = r.client.ZRem(ctx, redisExpiryKey, token).Err()
		}
	}
	return deleted, nil
}

func (r *RedisStore) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error) {
	tokens, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = tokenKey(token)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var out []Session
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry without a record, skip
		}
		var s Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, err
		}
		if s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}

	sortSessionsNewestFirst(out)
	return out, nil
}

func (r *RedisStore) CountAll(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, redisExpiryKey).Result()
}

func (r *RedisStore) CountActive(ctx context.Context, now time.Time) (int64, error) {
	return r.client.ZCount(ctx, redisExpiryKey,
		"("+strconv.FormatInt(now.Unix(), 10), "+inf").Result()
}

var _ Store = (*RedisStore)(nil)
