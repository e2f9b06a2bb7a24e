// Package changedetect decides whether an upstream observation carries new
// information. The feeds publish no timestamps, so the only signal is a
// comparison against the last stored fingerprint per facility and class.
package changedetect

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/repository"
)

// Verdict is the outcome of evaluating one observation.
type Verdict int

const (
	Unchanged Verdict = iota
	FirstSeen
	Changed
)

func (v Verdict) String() string {
	switch v {
	case FirstSeen:
		return "new"
	case Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

// Observation is a pending fingerprint write. Evaluate never persists;
// callers commit only after the resulting event was published, otherwise a
// publish failure would silently suppress the fact forever.
type Observation struct {
	Class      repository.FingerprintClass
	ExternalID string
	Value      string
}

// Detector evaluates updates against the fingerprint store.
type Detector struct {
	store  repository.FingerprintStore
	logger *zap.Logger
}

func New(store repository.FingerprintStore, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{store: store, logger: logger}
}

// EvaluateIdentity fingerprints the identity-class fields of a full update:
// name, address, coordinates and total capacity.
func (d *Detector) EvaluateIdentity(ctx context.Context, u *domain.FacilityUpdate) (Verdict, Observation, error) {
	value := contentHash(
		u.Name,
		u.Address,
		formatFloat(u.Latitude),
		formatFloat(u.Longitude),
		strconv.Itoa(u.TotalCount),
	)
	return d.evaluate(ctx, repository.FingerprintIdentity, u.ExternalID, value)
}

// EvaluateOperation fingerprints the fee/operating-hours subset of extra.
func (d *Detector) EvaluateOperation(ctx context.Context, externalID string, extra domain.ExtraInfo) (Verdict, Observation, error) {
	value := contentHash(operationFields(extra)...)
	return d.evaluate(ctx, repository.FingerprintOperation, externalID, value)
}

// EvaluateAvailability compares the raw count. The value domain is a small
// integer; hashing would add nothing.
func (d *Detector) EvaluateAvailability(ctx context.Context, externalID string, available int) (Verdict, Observation, error) {
	return d.evaluate(ctx, repository.FingerprintAvailability, externalID, strconv.Itoa(available))
}

// Commit persists a fingerprint produced by one of the Evaluate calls.
func (d *Detector) Commit(ctx context.Context, obs Observation) error {
	return d.store.Set(ctx, obs.Class, obs.ExternalID, obs.Value)
}

// Known reports whether an identity fingerprint exists for the facility;
// it distinguishes first-seen creates from updates.
func (d *Detector) Known(ctx context.Context, externalID string) (bool, error) {
	return d.store.Exists(ctx, repository.FingerprintIdentity, externalID)
}

// Forget drops every fingerprint class for the facility.
func (d *Detector) Forget(ctx context.Context, externalID string) error {
	return d.store.Forget(ctx, externalID)
}

func (d *Detector) evaluate(ctx context.Context, class repository.FingerprintClass, externalID, value string) (Verdict, Observation, error) {
	obs := Observation{Class: class, ExternalID: externalID, Value: value}

	previous, found, err := d.store.Get(ctx, class, externalID)
	if err != nil {
		return Unchanged, obs, err
	}
	if !found {
		return FirstSeen, obs, nil
	}
	if previous != value {
		return Changed, obs, nil
	}
	return Unchanged, obs, nil
}

// operationFields flattens the operational attributes into a stable field
// list for hashing.
func operationFields(extra domain.ExtraInfo) []string {
	return []string{
		formatIntPtr(extra.BaseFee),
		formatIntPtr(extra.BaseMinutes),
		formatIntPtr(extra.UnitFee),
		formatIntPtr(extra.UnitMinutes),
		formatIntPtr(extra.DailyMaxFee),
		extra.OperatingHours,
	}
}

func contentHash(fields ...string) string {
	sum := md5.Sum([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
