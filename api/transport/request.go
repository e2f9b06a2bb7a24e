package transport

// DeleteRequest marks a facility for removal from the platform.
type DeleteRequest struct {
	ExternalID string `json:"external_id"`
}
