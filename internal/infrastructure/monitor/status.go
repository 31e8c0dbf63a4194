package monitor

import "time"

// Status is one snapshot of backing-store reachability, served verbatim by
// the health endpoint. BufferSize is the number of writes awaiting replay.
type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}
