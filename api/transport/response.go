package transport

import "encoding/json"

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// SearchMeta describes the result page of a facility search; it rides in the
// envelope's Meta slot next to the hit list.
type SearchMeta struct {
	Count    int     `json:"count"`
	Page     int     `json:"page"`
	Size     int     `json:"size"`
	RadiusKm float64 `json:"radius_km,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewSearchPage wraps search results with their paging metadata.
func NewSearchPage(results interface{}, count, page, size int, radiusKm float64) Envelope {
	return NewSuccess(results, SearchMeta{
		Count:    count,
		Page:     page,
		Size:     size,
		RadiusKm: radiusKm,
	})
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
