// Package artwork resolves and caches cover images for albums and artists
// identified only by their names. Resolution walks a cost-ascending chain:
// session cache, in-flight deduplication, durable disk cache, negative
// cache, identity lookup, then throttled provider fetches with identifier
// and provider fallbacks. Confirmed misses are cached with expiry; provider
// outages are surfaced through a debounced notifier and never cached.
package artwork

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/fennecbyte/covercache/internal/datastore"
	"github.com/fennecbyte/covercache/internal/errors"
	"github.com/fennecbyte/covercache/internal/logging"
	"github.com/fennecbyte/covercache/internal/mbz"
	"github.com/fennecbyte/covercache/internal/provider"
)

const (
	defaultThrottleDelay      = 500 * time.Millisecond
	defaultNotFoundTTL        = 72 * time.Hour
	defaultProxyErrorCooldown = 30 * time.Second
)

// Artwork is a resolved cover: a locally-usable handle to the image.
type Artwork struct {
	Key      string
	Path     string
	CachedAt time.Time
}

// DiskCache is the durable artwork store resolution reads through and
// populates.
type DiskCache interface {
	Lookup(category, key string) (string, bool)
	Read(category, key string) ([]byte, error)
	Download(ctx context.Context, category, key, url string) (string, error)
}

// AlbumProvider serves album covers by externally-issued release id.
type AlbumProvider interface {
	FrontCoverURL(ctx context.Context, releaseID string) (string, error)
}

// SearchProvider serves artwork by id or free-text search; it is both the
// artist primary provider and the secondary fallback for albums.
type SearchProvider interface {
	ArtistPictureByID(ctx context.Context, artistID string) (string, error)
	SearchArtistPicture(ctx context.Context, artist string) (string, error)
	SearchAlbumCover(ctx context.Context, artist, album string) (string, error)
}

// ReleaseResolver turns an (artist, album) pair into a release identifier.
type ReleaseResolver interface {
	SearchRelease(ctx context.Context, artist, album string) (*mbz.ReleaseMatch, error)
	SearchReleases(ctx context.Context, queries []mbz.ReleaseQuery) []*mbz.ReleaseMatch
}

// Config tunes the resolution service. Zero values fall back to defaults.
type Config struct {
	ThrottleDelay      time.Duration
	NotFoundTTL        time.Duration
	ProxyErrorCooldown time.Duration
	Clock              func() time.Time
}

// Service is the artwork resolution orchestrator. One Service is constructed
// per process/library session; the session cache, in-flight registry and
// throttle cursor all live here rather than in package globals so that
// ClearAllCaches and tests stay straightforward.
type Service struct {
	disk     DiskCache
	albums   AlbumProvider
	search   SearchProvider
	resolver ReleaseResolver

	identities *IdentityStore
	notFound   *NotFoundStore
	notifier   *ProxyErrorNotifier
	throttle   *Throttle

	session *gocache.Cache

	mu     sync.Mutex
	flight *singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

// NewService wires the orchestrator. It also runs one negative-cache expiry
// sweep, matching the once-per-store-open contract.
func NewService(store datastore.Interface, disk DiskCache, albums AlbumProvider, search SearchProvider, resolver ReleaseResolver, cfg Config) *Service {
	if cfg.ThrottleDelay <= 0 {
		cfg.ThrottleDelay = defaultThrottleDelay
	}
	if cfg.NotFoundTTL <= 0 {
		cfg.NotFoundTTL = defaultNotFoundTTL
	}
	if cfg.ProxyErrorCooldown <= 0 {
		cfg.ProxyErrorCooldown = defaultProxyErrorCooldown
	}

	log := logging.ForService("artwork")
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		disk:       disk,
		albums:     albums,
		search:     search,
		resolver:   resolver,
		identities: NewIdentityStore(store, log),
		notFound:   NewNotFoundStore(store, cfg.NotFoundTTL, cfg.Clock, log),
		notifier:   NewProxyErrorNotifier(cfg.ProxyErrorCooldown, cfg.Clock, log),
		throttle:   NewThrottle(cfg.ThrottleDelay),
		session:    gocache.New(gocache.NoExpiration, 0),
		flight:     new(singleflight.Group),
		ctx:        ctx,
		cancel:     cancel,
		log:        log,
	}

	s.notFound.RunExpirySweep()
	return s
}

// ResolveAlbumCover resolves the cover for an album. A nil Artwork with nil
// error means no artwork could be resolved; errors are only returned for
// contract violations (missing names) or a cancelled caller context.
func (s *Service) ResolveAlbumCover(ctx context.Context, artist, album string) (*Artwork, error) {
	if strings.TrimSpace(artist) == "" {
		return nil, s.validationError("artist name is required")
	}
	if strings.TrimSpace(album) == "" {
		return nil, s.validationError("album name is required for album covers")
	}
	return s.resolve(ctx, CoverRequest{Kind: KindAlbum, Artist: artist, Album: album})
}

// ResolveArtistCover resolves the image for an artist.
func (s *Service) ResolveArtistCover(ctx context.Context, artist string) (*Artwork, error) {
	if strings.TrimSpace(artist) == "" {
		return nil, s.validationError("artist name is required")
	}
	return s.resolve(ctx, CoverRequest{Kind: KindArtist, Artist: artist})
}

// resolve walks the session cache, then joins or starts the in-flight
// operation for the key. The underlying lookup always runs to completion:
// a torn-down caller stops waiting, but other callers may be attached to
// the same flight and the caches still get populated.
func (s *Service) resolve(ctx context.Context, req CoverRequest) (*Artwork, error) {
	key := req.CacheKey()

	if art, ok := s.sessionGet(key); ok {
		return art, nil
	}

	ch := s.flightGroup().DoChan(key, func() (any, error) {
		return s.lookup(req), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		art, _ := res.Val.(*Artwork)
		return art, nil
	}
}

// lookup performs the uncached part of resolution. It never returns an
// error: every expected failure degrades to a nil result, with caching
// decisions driven by error classification.
func (s *Service) lookup(req CoverRequest) *Artwork {
	key := req.CacheKey()
	category := req.Kind.category()
	logger := s.log.With("key", key, "kind", string(req.Kind))
	// Session-scoped context: resolution work is shared between callers
	// and must survive any single caller's teardown.
	ctx := s.ctx

	if path, ok := s.disk.Lookup(category, key); ok {
		logger.Debug("Disk cache hit", "path", path)
		return s.complete(key, &Artwork{Key: key, Path: path, CachedAt: time.Now()}, false)
	}

	if s.notFound.IsMarked(key) {
		logger.Debug("Negative cache hit, skipping network lookup")
		return nil
	}

	var serverErr bool
	primaryID, fallbackID := s.identities.Get(req.IdentityKey())

	if req.Kind == KindAlbum && primaryID == "" && fallbackID == "" && s.resolver != nil {
		match, err := s.resolver.SearchRelease(ctx, req.Artist, req.Album)
		switch {
		case err != nil:
			// A resolver failure is not a confirmed miss; leave the
			// key uncached so the next resolution retries.
			logger.Warn("Identity resolution failed", "error", err)
			serverErr = true
		case match != nil:
			logger.Debug("Resolved release identifier",
				"release_id", match.ReleaseID,
				"score", match.Score)
			s.identities.Set(req.IdentityKey(), match.ReleaseID, "")
			primaryID = match.ReleaseID
		default:
			logger.Debug("No release identifier found")
		}
	}

	fetch := func(step string, urlFor func(context.Context) (string, error)) *Artwork {
		var art *Artwork
		err := s.throttle.Run(ctx, func() error {
			u, err := urlFor(ctx)
			if err != nil {
				return err
			}
			path, err := s.disk.Download(ctx, category, key, u)
			if err != nil {
				return err
			}
			art = &Artwork{Key: key, Path: path, CachedAt: time.Now()}
			return nil
		})
		if err == nil {
			return art
		}
		s.classifyFailure(err, &serverErr, logger.With("step", step))
		return nil
	}

	if primaryID != "" {
		art := fetch("primary", func(ctx context.Context) (string, error) {
			if req.Kind == KindArtist {
				return s.search.ArtistPictureByID(ctx, primaryID)
			}
			return s.albums.FrontCoverURL(ctx, primaryID)
		})
		if art != nil {
			return s.complete(key, art, true)
		}
	}

	if fallbackID != "" && fallbackID != primaryID {
		art := fetch("fallback", func(ctx context.Context) (string, error) {
			if req.Kind == KindArtist {
				return s.search.ArtistPictureByID(ctx, fallbackID)
			}
			return s.albums.FrontCoverURL(ctx, fallbackID)
		})
		if art != nil {
			return s.complete(key, art, true)
		}
	}

	art := fetch("secondary", func(ctx context.Context) (string, error) {
		if req.Kind == KindArtist {
			return s.search.SearchArtistPicture(ctx, req.Artist)
		}
		return s.search.SearchAlbumCover(ctx, req.Artist, req.Album)
	})
	if art != nil {
		return s.complete(key, art, true)
	}

	if serverErr {
		// Something in the chain failed transiently; the next request
		// for this key must retry rather than hit a false negative.
		logger.Debug("Resolution failed transiently, not caching negative result")
		return nil
	}

	logger.Debug("All providers confirmed missing artwork, caching negative result")
	s.notFound.Mark(key)
	return nil
}

// complete populates the session cache with a successful result. A fresh
// fetch also clears any stale negative record so a key is never both marked
// not-found and freshly cached.
func (s *Service) complete(key string, art *Artwork, fetched bool) *Artwork {
	if fetched {
		s.notFound.Unmark(key)
	}
	s.session.Set(key, art, gocache.NoExpiration)
	return art
}

// classifyFailure folds a fetch error into the caching decision: server-side
// and transport failures poison the negative cache for this request,
// not-found and decode errors do not.
func (s *Service) classifyFailure(err error, serverErr *bool, logger *slog.Logger) {
	switch {
	case errors.Is(err, ErrThrottleReset):
		*serverErr = true
		logger.Debug("Fetch dropped by session reset")
	case provider.IsServerSide(err):
		*serverErr = true
		code, _ := provider.StatusCode(err)
		logger.Warn("Provider server error", "status_code", code, "error", err)
		s.notifier.Report(ProxyError{StatusCode: code, Detail: err.Error()})
	case provider.IsDecode(err):
		// Not-found-class for caching, but logged distinctly so a
		// persistently malformed endpoint is diagnosable.
		logger.Warn("Provider response malformed, treating as missing artwork", "error", err)
	case provider.IsNotFound(err):
		logger.Debug("Provider has no artwork")
	case errors.HasCategory(err, errors.CategoryFileIO):
		*serverErr = true
		logger.Error("Failed to store artwork locally", "error", err)
	default:
		// No response at all. Non-cacheable by policy, same as a
		// server error, but without the user-facing notification.
		*serverErr = true
		logger.Warn("Provider unreachable", "error", err)
	}
}

// sessionGet returns the session-cached artwork for key, if any.
func (s *Service) sessionGet(key string) (*Artwork, bool) {
	if v, ok := s.session.Get(key); ok {
		if art, ok := v.(*Artwork); ok {
			return art, true
		}
	}
	return nil, false
}

func (s *Service) flightGroup() *singleflight.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flight
}

// ClearAllCaches empties the session cache and the in-flight registry and
// resets the throttle cursor. Called on logout or library switch; queued
// provider work from the previous session will not execute against the new
// one.
func (s *Service) ClearAllCaches() {
	s.mu.Lock()
	s.flight = new(singleflight.Group)
	s.mu.Unlock()

	s.session.Flush()
	s.throttle.Reset()
	s.log.Info("Session caches cleared")
}

// OnProxyError subscribes a listener to the debounced provider-outage
// signal.
func (s *Service) OnProxyError(listener func(ProxyError)) {
	s.notifier.Subscribe(listener)
}

// Notifier exposes the proxy-error notifier for push configuration.
func (s *Service) Notifier() *ProxyErrorNotifier {
	return s.notifier
}

// Identities exposes the identity store for callers that learn identifiers
// out of band (user confirmation, fingerprinting).
func (s *Service) Identities() *IdentityStore {
	return s.identities
}

// NegativeCache exposes the not-found store for maintenance commands.
func (s *Service) NegativeCache() *NotFoundStore {
	return s.notFound
}

// SetAlbumIdentity records externally-learned identifiers for an album,
// subject to the first-write-wins policy.
func (s *Service) SetAlbumIdentity(artist, album, primaryID, fallbackID string) {
	req := CoverRequest{Kind: KindAlbum, Artist: artist, Album: album}
	s.identities.Set(req.IdentityKey(), primaryID, fallbackID)
}

// SetArtistIdentity records an externally-learned artist identifier.
func (s *Service) SetArtistIdentity(artist, id string) {
	req := CoverRequest{Kind: KindArtist, Artist: artist}
	s.identities.Set(req.IdentityKey(), id, "")
}

// CoverPath reports whether a cover is already cached on disk for the
// request, without triggering resolution.
func (s *Service) CoverPath(req CoverRequest) (string, bool) {
	return s.disk.Lookup(req.Kind.category(), req.CacheKey())
}

// ReadCover returns the cached cover bytes for the request, for callers
// that need image data rather than a path.
func (s *Service) ReadCover(req CoverRequest) ([]byte, error) {
	return s.disk.Read(req.Kind.category(), req.CacheKey())
}

// ResolveReleaseIDs resolves a batch of album queries to release
// identifiers, storing each found identity under first-write-wins.
func (s *Service) ResolveReleaseIDs(ctx context.Context, queries []mbz.ReleaseQuery) []*mbz.ReleaseMatch {
	if s.resolver == nil {
		return make([]*mbz.ReleaseMatch, len(queries))
	}
	results := s.resolver.SearchReleases(ctx, queries)
	for i, match := range results {
		if match == nil {
			continue
		}
		req := CoverRequest{Kind: KindAlbum, Artist: queries[i].Artist, Album: queries[i].Album}
		s.identities.Set(req.IdentityKey(), match.ReleaseID, "")
	}
	return results
}

// Close stops background resolution work. In-flight operations are
// abandoned at their next suspension point.
func (s *Service) Close() {
	s.cancel()
}

func (s *Service) validationError(msg string) error {
	return errors.Newf("%s", msg).
		Component("artwork").
		Category(errors.CategoryValidation).
		Build()
}
