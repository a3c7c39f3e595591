// model.go defines the persistent records covercache keeps.
package datastore

import "time"

// Identity maps a normalized artist/album key to externally-issued release
// identifiers. PrimaryID is first-write-wins: the earliest stored identifier
// is presumed user-verified and is never overwritten by later automated
// lookups. FallbackID typically comes from audio fingerprinting.
type Identity struct {
	Key        string `gorm:"primaryKey"`
	PrimaryID  string
	FallbackID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NotFound records a confirmed negative artwork lookup for a cache key.
// Records expire after a TTL enforced by the caller; MarkedAt is compared
// against the injected clock, never against database time.
type NotFound struct {
	Key      string `gorm:"primaryKey"`
	MarkedAt time.Time
}
