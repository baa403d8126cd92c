package audit

import "time"

// Entry is one executed command line.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Session  string    `json:"session"`
	Remote   string    `json:"remote,omitempty"` // client address in server mode
	Line     string    `json:"line"`             // trimmed command line
	Commands []string  `json:"commands"`         // executable of each stage
	Result   string    `json:"result"`           // completed, exited, stopped-server
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"`
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"` // SHA-256 of this entry with this field empty
}

// Record is what a caller supplies; the logger fills in sequencing and
// hashing.
type Record struct {
	Session  string
	Remote   string
	Line     string
	Commands []string
	Result   string
	ExitCode int
	Error    string
	Duration time.Duration
	Cwd      string
}
