package credstore

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-redis/redis"
)

// RedisStore keeps one key per network so several hub instances can share
// refreshed tokens. Values are the same JSON records the file store writes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a store on an existing client. Keys are
// "<prefix>:<network>".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "adhub-cred"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(network string) string {
	return s.prefix + ":" + network
}

func (s *RedisStore) Load(network string) (Record, bool, error) {
	data, err := s.client.Get(s.key(network)).Result()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("credstore: redis get %s: %v", network, err)
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return Record{}, false, fmt.Errorf("credstore: parse record for %s: %v", network, err)
	}
	return record, true, nil
}

func (s *RedisStore) Save(record Record) error {
	if record.Network == "" {
		return fmt.Errorf("credstore: record has no network")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("credstore: encode record for %s: %v", record.Network, err)
	}
	if err := s.client.Set(s.key(record.Network), data, 0).Err(); err != nil {
		return fmt.Errorf("credstore: redis set %s: %v", record.Network, err)
	}
	return nil
}

func (s *RedisStore) Delete(network string) error {
	if err := s.client.Del(s.key(network)).Err(); err != nil {
		return fmt.Errorf("credstore: redis del %s: %v", network, err)
	}
	return nil
}

func (s *RedisStore) All() ([]Record, error) {
	keys, err := s.client.Keys(s.prefix + ":*").Result()
	if err != nil {
		return nil, fmt.Errorf("credstore: redis keys: %v", err)
	}

	all := make([]Record, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("credstore: redis get %s: %v", key, err)
		}
		var record Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("credstore: parse %s: %v", key, err)
		}
		all = append(all, record)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Network < all[j].Network })
	return all, nil
}
