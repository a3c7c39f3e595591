// notfound.go is the negative-result cache: confirmed "no artwork exists"
// answers are remembered for a TTL so missing covers do not trigger a
// network lookup on every render. Transient provider failures are never
// recorded here; the resolver only marks a key after a definitive miss.
package artwork

import (
	"log/slog"
	"time"

	"github.com/fennecbyte/covercache/internal/datastore"
)

// NotFoundStore tracks confirmed negative lookups with time-based expiry.
type NotFoundStore struct {
	store datastore.Interface
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

// NewNotFoundStore creates a NotFoundStore with the given TTL. The clock is
// injectable for expiry tests.
func NewNotFoundStore(store datastore.Interface, ttl time.Duration, now func() time.Time, log *slog.Logger) *NotFoundStore {
	if now == nil {
		now = time.Now
	}
	return &NotFoundStore{
		store: store,
		ttl:   ttl,
		now:   now,
		log:   log.With("component", "notfound"),
	}
}

// IsMarked reports whether key has an unexpired negative record. An expired
// record is evicted here, not merely ignored, so the store converges without
// waiting for a sweep.
func (s *NotFoundStore) IsMarked(key string) bool {
	record, err := s.store.GetNotFound(key)
	if err != nil {
		s.log.Warn("Failed to read not-found record", "key", key, "error", err)
		return false
	}
	if record == nil {
		return false
	}
	if s.expired(record.MarkedAt) {
		s.log.Debug("Evicting expired not-found record", "key", key, "marked_at", record.MarkedAt)
		if err := s.store.DeleteNotFound(key); err != nil {
			s.log.Warn("Failed to evict expired not-found record", "key", key, "error", err)
		}
		return false
	}
	return true
}

// Mark records a confirmed negative result for key, overwriting any
// existing timestamp.
func (s *NotFoundStore) Mark(key string) {
	record := &datastore.NotFound{Key: key, MarkedAt: s.now()}
	if err := s.store.SaveNotFound(record); err != nil {
		s.log.Warn("Failed to persist not-found record", "key", key, "error", err)
	}
}

// Unmark removes any negative record for key.
func (s *NotFoundStore) Unmark(key string) {
	if err := s.store.DeleteNotFound(key); err != nil {
		s.log.Warn("Failed to remove not-found record", "key", key, "error", err)
	}
}

// RunExpirySweep scans all records and evicts the expired ones, returning
// how many were removed. Intended to run once per store open rather than on
// every read.
func (s *NotFoundStore) RunExpirySweep() int {
	records, err := s.store.GetAllNotFound()
	if err != nil {
		s.log.Warn("Expiry sweep failed to list records", "error", err)
		return 0
	}

	evicted := 0
	for i := range records {
		if !s.expired(records[i].MarkedAt) {
			continue
		}
		if err := s.store.DeleteNotFound(records[i].Key); err != nil {
			s.log.Warn("Expiry sweep failed to evict record", "key", records[i].Key, "error", err)
			continue
		}
		evicted++
	}
	if evicted > 0 {
		s.log.Info("Expiry sweep evicted stale not-found records", "count", evicted, "scanned", len(records))
	}
	return evicted
}

// Clear removes all negative records.
func (s *NotFoundStore) Clear() {
	if err := s.store.ClearNotFound(); err != nil {
		s.log.Warn("Failed to clear not-found records", "error", err)
	}
}

func (s *NotFoundStore) expired(markedAt time.Time) bool {
	return s.now().Sub(markedAt) > s.ttl
}
