package monitor

import "time"

type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Index      bool      `json:"index"`
	IndexSize  int       `json:"index_size"`
	LastCheck  time.Time `json:"last_check"`
}
