package repository

import "context"

// FingerprintClass partitions the change-detection state per facility.
type FingerprintClass string

const (
	// FingerprintIdentity covers name, address, coordinates and capacity;
	// stored as a content hash.
	FingerprintIdentity FingerprintClass = "identity"
	// FingerprintOperation covers the fee/operating-hours attributes;
	// stored as a content hash.
	FingerprintOperation FingerprintClass = "operation"
	// FingerprintAvailability stores the raw last-seen count, compared by
	// equality. Its short TTL forces re-emission once the value goes stale.
	FingerprintAvailability FingerprintClass = "availability"
)

// FingerprintStore keeps the last observed fingerprint per facility and
// class. Implementations must be safe under concurrent read-modify-write
// from independent collection schedules.
type FingerprintStore interface {
	// Get returns the stored value and whether one exists.
	Get(ctx context.Context, class FingerprintClass, externalID string) (string, bool, error)
	// Set stores the value under the class TTL.
	Set(ctx context.Context, class FingerprintClass, externalID, value string) error
	// Exists reports whether an identity fingerprint is present; used to
	// tell creates from updates.
	Exists(ctx context.Context, class FingerprintClass, externalID string) (bool, error)
	// Forget drops all classes for the facility (delete path).
	Forget(ctx context.Context, externalID string) error
}
