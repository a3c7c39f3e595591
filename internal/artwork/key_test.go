package artwork

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_NormalizesNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  CoverRequest
		want string
	}{
		{
			name: "album lowercased and trimmed",
			req:  CoverRequest{Kind: KindAlbum, Artist: "  Queen ", Album: "A Night at the Opera"},
			want: "album:queen|||a night at the opera",
		},
		{
			name: "case variants collapse to one key",
			req:  CoverRequest{Kind: KindAlbum, Artist: "QUEEN", Album: "A NIGHT AT THE OPERA"},
			want: "album:queen|||a night at the opera",
		},
		{
			name: "artist key carries kind prefix and trailing separator",
			req:  CoverRequest{Kind: KindArtist, Artist: "Queen"},
			want: "artist:queen|||",
		},
		{
			name: "interior whitespace preserved",
			req:  CoverRequest{Kind: KindArtist, Artist: " The  Beatles "},
			want: "artist:the  beatles|||",
		},
		{
			name: "diacritics preserved",
			req:  CoverRequest{Kind: KindArtist, Artist: "Sigur Rós"},
			want: "artist:sigur rós|||",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.req.CacheKey())
		})
	}
}

func TestCacheKey_ArtistAndAlbumKeysDistinct(t *testing.T) {
	t.Parallel()

	artist := CoverRequest{Kind: KindArtist, Artist: "Queen"}
	album := CoverRequest{Kind: KindAlbum, Artist: "Queen", Album: ""}
	assert.NotEqual(t, artist.CacheKey(), album.CacheKey())
}

func TestIdentityKey_SharedAcrossKinds(t *testing.T) {
	t.Parallel()

	// Identity records are provider-agnostic: no kind prefix.
	req := CoverRequest{Kind: KindAlbum, Artist: "Queen", Album: "A Night at the Opera"}
	assert.Equal(t, "queen|||a night at the opera", req.IdentityKey())

	artist := CoverRequest{Kind: KindArtist, Artist: "Queen"}
	assert.Equal(t, "queen|||", artist.IdentityKey())
}

func TestKind_Category(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "albums", KindAlbum.category())
	assert.Equal(t, "artists", KindArtist.category())
}
