// Package redis holds short-lived coordination state shared between API replicas.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultDedupeTTL = 24 * time.Hour
	keyPrefix        = "court-booking:"
)

// NewClient connects to Redis at addr
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Deduper claims event keys with SET NX so that each is processed once
// across replicas
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &Deduper{client: client, ttl: ttl}
}

// Claim reports whether the caller is the first to see key
func (d *Deduper) Claim(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), d.ttl).Result()
}

// Release drops a claim so the event can be retried
func (d *Deduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, keyPrefix+key).Err()
}

// LocalDeduper is the single-process fallback used when Redis is not configured
type LocalDeduper struct {
	mu     sync.Mutex
	ttl    time.Duration
	claims map[string]time.Time
	now    func() time.Time
}

func NewLocalDeduper(ttl time.Duration) *LocalDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &LocalDeduper{ttl: ttl, claims: make(map[string]time.Time), now: time.Now}
}

func (d *LocalDeduper) Claim(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, exp := range d.claims {
		if now.After(exp) {
			delete(d.claims, k)
		}
	}
	if _, ok := d.claims[key]; ok {
		return false, nil
	}
	d.claims[key] = now.Add(d.ttl)
	return true, nil
}

func (d *LocalDeduper) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, key)
	return nil
}
