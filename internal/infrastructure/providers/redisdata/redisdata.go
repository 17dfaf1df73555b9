// Package redisdata provides the redis provider kind. Its root object is a
// Keyspace: each member is a key under the configured prefix.
package redisdata

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"kilometers.ai/locator/internal/core/domain/datasource"
	"kilometers.ai/locator/internal/core/ports"
	"kilometers.ai/locator/internal/infrastructure/kinds"
)

func init() {
	kinds.Register("redis", New)
}

// Provider owns the redis client behind a Keyspace
type Provider struct {
	client *redis.Client
	root   *Keyspace
}

// New creates a provider from the addr, db and prefix options
func New(spec kinds.Spec) (ports.Provider, error) {
	addr, err := spec.StringOr("addr", "localhost:6379")
	if err != nil {
		return nil, err
	}
	db, err := spec.Int("db", 0)
	if err != nil {
		return nil, err
	}
	prefix, err := spec.StringOr("prefix", "")
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &Provider{
		client: client,
		root:   NewKeyspace(client, prefix, spec.Metadata.Shape),
	}, nil
}

// DataSource returns the Keyspace root
func (p *Provider) DataSource() (any, error) {
	return p.root, nil
}

// Close closes the redis client
func (p *Provider) Close() error {
	return p.client.Close()
}

// Keyspace exposes redis keys below a prefix as navigable members.
// A key that does not exist is present but null.
type Keyspace struct {
	client redis.Cmdable
	prefix string
	shape  datasource.Shape
}

// NewKeyspace creates a Keyspace over client
func NewKeyspace(client redis.Cmdable, prefix string, shape datasource.Shape) *Keyspace {
	if shape.IsZero() {
		shape = "redis.Keyspace"
	}
	return &Keyspace{client: client, prefix: prefix, shape: shape}
}

// Shape reports the declared schema token
func (k *Keyspace) Shape() datasource.Shape { return k.shape }

// Member reads the key prefix+name
func (k *Keyspace) Member(name string) (any, bool, error) {
	v, err := k.Get(context.Background(), name)
	return v, true, err
}

// Get reads a key and converts it by type: string to string, hash to
// map[string]any, list and zset to []any in stored order, set to sorted []any.
func (k *Keyspace) Get(ctx context.Context, name string) (any, error) {
	key := k.prefix + name

	typ, err := k.client.Type(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect key %s: %w", key, err)
	}

	switch typ {
	case "none":
		return nil, nil
	case "string":
		v, err := k.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		return v, wrap(key, err)
	case "hash":
		fields, err := k.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, wrap(key, err)
		}
		out := make(map[string]any, len(fields))
		for f, v := range fields {
			out[f] = v
		}
		return out, nil
	case "list":
		items, err := k.client.LRange(ctx, key, 0, -1).Result()
		return toAny(items), wrap(key, err)
	case "set":
		items, err := k.client.SMembers(ctx, key).Result()
		sort.Strings(items)
		return toAny(items), wrap(key, err)
	case "zset":
		items, err := k.client.ZRange(ctx, key, 0, -1).Result()
		return toAny(items), wrap(key, err)
	default:
		return nil, fmt.Errorf("key %s has unsupported type %s", key, typ)
	}
}

func wrap(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to read key %s: %w", key, err)
}

func toAny(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
