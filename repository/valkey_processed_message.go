package repository

import (
	"context"
	"fmt"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/AzielCF/az-citas/infrastructure/valkey"
)

// ValkeyProcessedMessageStore guarda marcadores con TTL; la retención la hace el propio valkey.
type ValkeyProcessedMessageStore struct {
	client    *valkey.Client
	retention time.Duration
}

func NewValkeyProcessedMessageStore(client *valkey.Client, retention time.Duration) *ValkeyProcessedMessageStore {
	return &ValkeyProcessedMessageStore{client: client, retention: retention}
}

func (s *ValkeyProcessedMessageStore) key(messageID string) string {
	return s.client.Key("processed", messageID)
}

func (s *ValkeyProcessedMessageStore) inner() valkeylib.Client {
	return s.client.Inner()
}

func (s *ValkeyProcessedMessageStore) Seen(ctx context.Context, messageID string) (bool, error) {
	count, err := s.inner().Do(ctx, s.inner().B().Exists().Key(s.key(messageID)).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to check processed marker: %w", err)
	}
	return count > 0, nil
}

// Mark: SET key 1 NX EX retention. Un nil de valkey significa que ya existía.
func (s *ValkeyProcessedMessageStore) Mark(ctx context.Context, messageID string, at time.Time) (bool, error) {
	cmd := s.inner().B().Set().
		Key(s.key(messageID)).
		Value(at.UTC().Format(time.RFC3339)).
		Nx().
		Ex(s.retention).
		Build()

	err := s.inner().Do(ctx, cmd).Error()
	if err == nil {
		return true, nil
	}
	if valkey.IsNil(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to set processed marker: %w", err)
}

// Cleanup no tiene trabajo: las claves expiran solas.
func (s *ValkeyProcessedMessageStore) Cleanup(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
