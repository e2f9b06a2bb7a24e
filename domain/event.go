package domain

import "time"

// EventType classifies facility events on the log.
//
// Upstream feeds provide no updatedAt, so event emission is driven by
// fingerprint-based change detection: identity and operation facts by field
// hash, availability by direct value comparison.
type EventType string

const (
	EventFacilityCreated     EventType = "FACILITY_CREATED"
	EventFacilityUpdated     EventType = "FACILITY_UPDATED"
	EventOperationUpdated    EventType = "OPERATION_UPDATED"
	EventAvailabilityChanged EventType = "AVAILABILITY_CHANGED"
	EventFacilityDeleted     EventType = "FACILITY_DELETED"

	// Legacy coarse kinds kept for consumers of the old topic layout.
	EventUpsert       EventType = "UPSERT"
	EventStatusUpdate EventType = "STATUS_UPDATE"
)

// IsFull reports whether every field of the event is authoritative.
func (t EventType) IsFull() bool {
	return t == EventFacilityCreated || t == EventFacilityUpdated || t == EventUpsert
}

// IsPartial reports whether only the availability/extra subset is authoritative.
func (t EventType) IsPartial() bool {
	return t == EventAvailabilityChanged || t == EventOperationUpdated || t == EventStatusUpdate
}

// FacilityEvent is the payload published to the event log, keyed and
// partitioned by ExternalID.
type FacilityEvent struct {
	EventID        string       `json:"event_id"`
	Type           EventType    `json:"event_type"`
	ExternalID     string       `json:"external_id"`
	Kind           FacilityKind `json:"kind,omitempty"`
	Name           string       `json:"name,omitempty"`
	Address        string       `json:"address,omitempty"`
	Latitude       float64      `json:"latitude,omitempty"`
	Longitude      float64      `json:"longitude,omitempty"`
	TotalCount     int          `json:"total_count,omitempty"`
	AvailableCount int          `json:"available_count"`
	Extra          ExtraInfo    `json:"extra,omitempty"`
	CollectedAt    time.Time    `json:"collected_at"`
}

// NewFullEvent maps a full update onto an event of the given type.
func NewFullEvent(t EventType, u *FacilityUpdate) *FacilityEvent {
	return &FacilityEvent{
		Type:           t,
		ExternalID:     u.ExternalID,
		Kind:           u.Kind,
		Name:           u.Name,
		Address:        u.Address,
		Latitude:       u.Latitude,
		Longitude:      u.Longitude,
		TotalCount:     u.TotalCount,
		AvailableCount: u.AvailableCount,
		Extra:          u.Extra,
		CollectedAt:    u.ObservedAt,
	}
}

// NewAvailabilityEvent builds the narrow availability-changed event.
func NewAvailabilityEvent(externalID string, available int, collectedAt time.Time) *FacilityEvent {
	return &FacilityEvent{
		Type:           EventAvailabilityChanged,
		ExternalID:     externalID,
		AvailableCount: available,
		CollectedAt:    collectedAt,
	}
}

// NewOperationEvent builds the operation-attributes-changed event.
func NewOperationEvent(externalID string, extra ExtraInfo, collectedAt time.Time) *FacilityEvent {
	return &FacilityEvent{
		Type:        EventOperationUpdated,
		ExternalID:  externalID,
		Extra:       extra,
		CollectedAt: collectedAt,
	}
}

// NewDeleteEvent builds the facility-deleted event.
func NewDeleteEvent(externalID string, collectedAt time.Time) *FacilityEvent {
	return &FacilityEvent{
		Type:        EventFacilityDeleted,
		ExternalID:  externalID,
		CollectedAt: collectedAt,
	}
}
