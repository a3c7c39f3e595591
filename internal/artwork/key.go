// key.go builds the stable cache keys artwork resolution runs on. Keys are
// derived from free-text names so they survive library records being deleted
// and recreated with new numeric ids.
package artwork

import "strings"

// keySeparator joins the artist and album segments unambiguously; neither
// segment can contain it after normalization in practice, and a trailing
// separator keeps artist keys distinct from an album key with an empty
// album segment.
const keySeparator = "|||"

// Kind distinguishes album covers from artist images.
type Kind string

const (
	KindAlbum  Kind = "album"
	KindArtist Kind = "artist"
)

// category returns the disk cache subdirectory for the kind.
func (k Kind) category() string {
	if k == KindArtist {
		return "artists"
	}
	return "albums"
}

// CoverRequest identifies one piece of artwork to resolve. Album is required
// iff Kind is KindAlbum.
type CoverRequest struct {
	Kind   Kind
	Artist string
	Album  string
}

// normalize lowercases and trims surrounding whitespace. Nothing else:
// diacritics and punctuation are preserved, so "Sigur Rós" and "Sigur Ros"
// are distinct keys. That is a documented limitation of name-based keying,
// not something to fix here.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IdentityKey is the non-prefixed key identity records are stored under.
// Identity is a shared concept across providers, so it carries no kind
// prefix: "artist|||album" for albums, "artist|||" for artists.
func (r CoverRequest) IdentityKey() string {
	if r.Kind == KindArtist {
		return normalize(r.Artist) + keySeparator
	}
	return normalize(r.Artist) + keySeparator + normalize(r.Album)
}

// CacheKey is the kind-prefixed key used by the session cache, the in-flight
// registry, the not-found store and the disk cache. Two requests are
// cache-equivalent iff their CacheKeys are equal.
func (r CoverRequest) CacheKey() string {
	if r.Kind == KindArtist {
		return "artist:" + r.IdentityKey()
	}
	return "album:" + r.IdentityKey()
}
