package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redisGo "github.com/redis/go-redis/v9"

	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/repository"
)

type stateStore struct {
	client *redisGo.Client
	key    string
}

// NewStateStore creates a Redis-backed StateStore persisting the full core
// state as a single JSON value under key.
func NewStateStore(client *redisGo.Client, key string) repository.StateStore {
	return &stateStore{client: client, key: key}
}

func (s *stateStore) Save(ctx context.Context, state entity.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write state to redis: %w", err)
	}
	return nil
}

func (s *stateStore) Load(ctx context.Context) (entity.State, bool, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redisGo.Nil) {
		return entity.State{}, false, nil
	}
	if err != nil {
		return entity.State{}, false, fmt.Errorf("failed to read state from redis: %w", err)
	}

	var state entity.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return entity.State{}, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, true, nil
}
