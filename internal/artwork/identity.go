// identity.go persists the mapping from normalized names to release
// identifiers. The first stored primary id wins: early identifiers are
// presumed user-verified, later automated lookups never overwrite them.
package artwork

import (
	"log/slog"

	"github.com/fennecbyte/covercache/internal/datastore"
)

// IdentityStore wraps the durable store with the first-write-wins policy.
// Store failures are logged and swallowed: identity can always be re-derived
// on the next resolution, so a failed write only costs a repeat lookup.
type IdentityStore struct {
	store datastore.Interface
	log   *slog.Logger
}

// NewIdentityStore creates an IdentityStore over the given durable store.
func NewIdentityStore(store datastore.Interface, log *slog.Logger) *IdentityStore {
	return &IdentityStore{
		store: store,
		log:   log.With("component", "identity"),
	}
}

// Get returns the primary and fallback identifiers for key, empty strings
// when absent.
func (s *IdentityStore) Get(key string) (primaryID, fallbackID string) {
	record, err := s.store.GetIdentity(key)
	if err != nil {
		s.log.Warn("Failed to read identity record", "key", key, "error", err)
		return "", ""
	}
	if record == nil {
		return "", ""
	}
	return record.PrimaryID, record.FallbackID
}

// Set stores identifiers for key. A no-op if a primary id is already stored
// (first-write-wins). A fallback equal to the primary is not stored.
func (s *IdentityStore) Set(key, primaryID, fallbackID string) {
	if primaryID == "" {
		return
	}
	existing, err := s.store.GetIdentity(key)
	if err != nil {
		s.log.Warn("Failed to read identity record before write", "key", key, "error", err)
		return
	}
	if existing != nil && existing.PrimaryID != "" {
		s.log.Debug("Identity already recorded, keeping earlier value",
			"key", key,
			"stored_primary", existing.PrimaryID,
			"ignored_primary", primaryID)
		return
	}
	if fallbackID == primaryID {
		fallbackID = ""
	}
	record := &datastore.Identity{Key: key, PrimaryID: primaryID, FallbackID: fallbackID}
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
	}
	if err := s.store.SaveIdentity(record); err != nil {
		// Not yet durable; the next resolution re-derives and retries.
		s.log.Warn("Failed to persist identity record", "key", key, "error", err)
	}
}

// Clear removes all identity records.
func (s *IdentityStore) Clear() {
	if err := s.store.ClearIdentities(); err != nil {
		s.log.Warn("Failed to clear identity records", "error", err)
	}
}
