package postgres

import (
	"encoding/json"
	"time"

	"github.com/spotsync/backend/domain"
)

func marshalExtra(extra domain.ExtraInfo) []byte {
	if extra.IsZero() {
		return []byte("{}")
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func unmarshalExtra(data []byte) domain.ExtraInfo {
	var extra domain.ExtraInfo
	if len(data) > 0 {
		_ = json.Unmarshal(data, &extra)
	}
	return extra
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
