package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/spotsync/backend/repository"
)

// FingerprintTTLs configures the per-class expiry. Identity and operation
// fingerprints live for days; availability is refreshed every sync cycle, so
// its short TTL bounds staleness by forcing re-emission.
type FingerprintTTLs struct {
	Identity     time.Duration
	Operation    time.Duration
	Availability time.Duration
}

type fingerprintStore struct {
	client *redislib.Client
	ttls   FingerprintTTLs
}

// NewFingerprintStore creates a Redis-backed fingerprint store.
func NewFingerprintStore(client *redislib.Client, ttls FingerprintTTLs) repository.FingerprintStore {
	if ttls.Identity <= 0 {
		ttls.Identity = 7 * 24 * time.Hour
	}
	if ttls.Operation <= 0 {
		ttls.Operation = 7 * 24 * time.Hour
	}
	if ttls.Availability <= 0 {
		ttls.Availability = 10 * time.Minute
	}
	return &fingerprintStore{client: client, ttls: ttls}
}

func (s *fingerprintStore) Get(ctx context.Context, class repository.FingerprintClass, externalID string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(class, externalID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *fingerprintStore) Set(ctx context.Context, class repository.FingerprintClass, externalID, value string) error {
	return s.client.Set(ctx, s.key(class, externalID), value, s.ttl(class)).Err()
}

func (s *fingerprintStore) Exists(ctx context.Context, class repository.FingerprintClass, externalID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(class, externalID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *fingerprintStore) Forget(ctx context.Context, externalID string) error {
	return s.client.Del(ctx,
		s.key(repository.FingerprintIdentity, externalID),
		s.key(repository.FingerprintOperation, externalID),
		s.key(repository.FingerprintAvailability, externalID),
	).Err()
}

func (s *fingerprintStore) key(class repository.FingerprintClass, externalID string) string {
	return fmt.Sprintf("fp:%s:%s", class, externalID)
}

func (s *fingerprintStore) ttl(class repository.FingerprintClass) time.Duration {
	switch class {
	case repository.FingerprintAvailability:
		return s.ttls.Availability
	case repository.FingerprintOperation:
		return s.ttls.Operation
	default:
		return s.ttls.Identity
	}
}
