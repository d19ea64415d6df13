// Package credstore persists per-network credential state between process
// runs: whatever a provider needs to avoid re-authenticating from scratch.
// One record per network. Records hold refresh material and the last issued
// token; the signing secrets themselves stay in configuration.
package credstore

import "time"

// Record is the persisted credential state of one network.
type Record struct {
	Network      string    `json:"network"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenExpiry  time.Time `json:"token_expiry,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store reads and writes credential records. Implementations must be safe
// for concurrent use; a refresh in one goroutine may save while another
// loads.
type Store interface {
	// Load returns the record for a network. The second return is false when
	// no record exists, which is not an error.
	Load(network string) (Record, bool, error)

	// Save upserts a record keyed by its Network field.
	Save(record Record) error

	// Delete removes a network's record. Deleting a missing record is a
	// no-op.
	Delete(network string) error

	// All returns every stored record.
	All() ([]Record, error)
}
