// mocks_test.go provides the in-memory collaborators the service tests run
// against: a map-backed datastore, a recording disk cache and scriptable
// providers.
package artwork

import (
	"context"
	"sync"
	"time"

	"github.com/fennecbyte/covercache/internal/datastore"
	"github.com/fennecbyte/covercache/internal/mbz"
	"github.com/fennecbyte/covercache/internal/provider"
)

// memStore is a map-backed datastore.Interface for tests.
type memStore struct {
	mu         sync.Mutex
	identities map[string]datastore.Identity
	notFound   map[string]datastore.NotFound

	identityErr error // injected failure for all identity operations
}

func newMemStore() *memStore {
	return &memStore{
		identities: make(map[string]datastore.Identity),
		notFound:   make(map[string]datastore.NotFound),
	}
}

func (m *memStore) Open() error  { return nil }
func (m *memStore) Close() error { return nil }

func (m *memStore) GetIdentity(key string) (*datastore.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identityErr != nil {
		return nil, m.identityErr
	}
	if record, ok := m.identities[key]; ok {
		return &record, nil
	}
	return nil, nil
}

func (m *memStore) SaveIdentity(identity *datastore.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identityErr != nil {
		return m.identityErr
	}
	m.identities[identity.Key] = *identity
	return nil
}

func (m *memStore) DeleteIdentity(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, key)
	return nil
}

func (m *memStore) ClearIdentities() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities = make(map[string]datastore.Identity)
	return nil
}

func (m *memStore) GetNotFound(key string) (*datastore.NotFound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.notFound[key]; ok {
		return &record, nil
	}
	return nil, nil
}

func (m *memStore) SaveNotFound(record *datastore.NotFound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notFound[record.Key] = *record
	return nil
}

func (m *memStore) DeleteNotFound(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notFound, key)
	return nil
}

func (m *memStore) GetAllNotFound() ([]datastore.NotFound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]datastore.NotFound, 0, len(m.notFound))
	for _, record := range m.notFound {
		records = append(records, record)
	}
	return records, nil
}

func (m *memStore) ClearNotFound() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notFound = make(map[string]datastore.NotFound)
	return nil
}

func (m *memStore) notFoundCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notFound)
}

// mockDisk records lookups and downloads. Downloaded keys become lookup
// hits, like the real store.
type mockDisk struct {
	mu          sync.Mutex
	stored      map[string]string // category/key -> path
	downloads   int
	downloadErr error // injected failure for Download
}

func newMockDisk() *mockDisk {
	return &mockDisk{stored: make(map[string]string)}
}

func (d *mockDisk) Lookup(category, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	path, ok := d.stored[category+"/"+key]
	return path, ok
}

func (d *mockDisk) Read(category, key string) ([]byte, error) {
	return []byte("image-bytes"), nil
}

func (d *mockDisk) Download(ctx context.Context, category, key, url string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.downloads++
	if d.downloadErr != nil {
		return "", d.downloadErr
	}
	path := "/assets/" + category + "/" + key + ".jpg"
	d.stored[category+"/"+key] = path
	return path, nil
}

func (d *mockDisk) downloadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.downloads
}

// put seeds a pre-existing cover.
func (d *mockDisk) put(category, key, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stored[category+"/"+key] = path
}

// mockAlbums scripts FrontCoverURL per release id.
type mockAlbums struct {
	mu    sync.Mutex
	urls  map[string]string // release id -> url
	errs  map[string]error  // release id -> error
	calls []string
}

func newMockAlbums() *mockAlbums {
	return &mockAlbums{urls: make(map[string]string), errs: make(map[string]error)}
}

func (a *mockAlbums) FrontCoverURL(ctx context.Context, releaseID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, releaseID)
	if err, ok := a.errs[releaseID]; ok {
		return "", err
	}
	if u, ok := a.urls[releaseID]; ok {
		return u, nil
	}
	return "", provider.ErrNoArtwork
}

func (a *mockAlbums) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// mockSearch scripts the Deezer-shaped provider.
type mockSearch struct {
	mu sync.Mutex

	pictureByID    map[string]string
	pictureByIDErr map[string]error
	searchArtist   map[string]string
	searchAlbum    map[string]string
	searchErr      error

	searchCalls int
}

func newMockSearch() *mockSearch {
	return &mockSearch{
		pictureByID:    make(map[string]string),
		pictureByIDErr: make(map[string]error),
		searchArtist:   make(map[string]string),
		searchAlbum:    make(map[string]string),
	}
}

func (s *mockSearch) ArtistPictureByID(ctx context.Context, artistID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.pictureByIDErr[artistID]; ok {
		return "", err
	}
	if u, ok := s.pictureByID[artistID]; ok {
		return u, nil
	}
	return "", provider.ErrNoArtwork
}

func (s *mockSearch) SearchArtistPicture(ctx context.Context, artist string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	if s.searchErr != nil {
		return "", s.searchErr
	}
	if u, ok := s.searchArtist[artist]; ok {
		return u, nil
	}
	return "", provider.ErrNoArtwork
}

func (s *mockSearch) SearchAlbumCover(ctx context.Context, artist, album string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	if s.searchErr != nil {
		return "", s.searchErr
	}
	if u, ok := s.searchAlbum[artist+"/"+album]; ok {
		return u, nil
	}
	return "", provider.ErrNoArtwork
}

func (s *mockSearch) searchCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls
}

// mockResolver scripts release lookups.
type mockResolver struct {
	mu      sync.Mutex
	matches map[string]*mbz.ReleaseMatch // "artist/album" -> match
	err     error
	calls   int
}

func newMockResolver() *mockResolver {
	return &mockResolver{matches: make(map[string]*mbz.ReleaseMatch)}
}

func (r *mockResolver) SearchRelease(ctx context.Context, artist, album string) (*mbz.ReleaseMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.matches[artist+"/"+album], nil
}

func (r *mockResolver) SearchReleases(ctx context.Context, queries []mbz.ReleaseQuery) []*mbz.ReleaseMatch {
	results := make([]*mbz.ReleaseMatch, len(queries))
	for i, q := range queries {
		match, err := r.SearchRelease(ctx, q.Artist, q.Album)
		if err != nil {
			continue
		}
		results[i] = match
	}
	return results
}

func (r *mockResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeClock is a hand-advanced clock for expiry and debounce tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
