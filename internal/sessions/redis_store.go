package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/redis"
	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// RedisStore persists sessions as JSON documents with a TTL. Abandoned
// sessions expire out of the keyspace on their own.
type RedisStore struct {
	client redis.SessionKV
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore wires the store to a shared redis client. TTL must be
// positive; it is refreshed on every write.
func NewRedisStore(client redis.SessionKV, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}, nil
}

func (r *RedisStore) Create(ctx context.Context, session *types.CheckoutSession) error {
	return r.write(ctx, session)
}

func (r *RedisStore) Get(ctx context.Context, checkoutID string) (*types.CheckoutSession, bool, error) {
	raw, err := r.client.Get(ctx, r.client.CheckoutKey(checkoutID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reading checkout session")
	}

	var session types.CheckoutSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "decoding checkout session")
	}
	return &session, true, nil
}

func (r *RedisStore) Update(ctx context.Context, checkoutID string, patch Patch) (*types.CheckoutSession, bool, error) {
	session, ok, err := r.Get(ctx, checkoutID)
	if err != nil || !ok {
		return nil, ok, err
	}

	patch.Apply(session)
	session.UpdatedAt = r.now().UTC()

	if err := r.write(ctx, session); err != nil {
		return nil, true, err
	}
	return session, true, nil
}

func (r *RedisStore) Delete(ctx context.Context, checkoutID string) (bool, error) {
	removed, err := r.client.Del(ctx, r.client.CheckoutKey(checkoutID))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "deleting checkout session")
	}
	return removed > 0, nil
}

func (r *RedisStore) CountActive(ctx context.Context) (int64, error) {
	count, err := r.client.CountKeys(ctx, r.client.CheckoutKeyPattern())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "counting checkout sessions")
	}
	return count, nil
}

func (r *RedisStore) write(ctx context.Context, session *types.CheckoutSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "encoding checkout session")
	}
	if err := r.client.Set(ctx, r.client.CheckoutKey(session.CheckoutID), raw, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "writing checkout session")
	}
	return nil
}
