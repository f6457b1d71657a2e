package lock

import (
	"context"
	"sync"
	"time"
)

// KeyedMutex is an in-process Locker for single-node deployments and tests.
// The ttl argument is ignored: scopes live until Unlock.
type KeyedMutex struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{held: make(map[string]struct{})}
}

func (k *KeyedMutex) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, taken := k.held[key]; taken {
		return false, nil
	}
	k.held[key] = struct{}{}

	return true, nil
}

func (k *KeyedMutex) Unlock(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.held, key)

	return nil
}

func (k *KeyedMutex) Close() error { return nil }
