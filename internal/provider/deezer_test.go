package provider

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deezerTestEndpoint = "https://deezer.test"

func TestDeezer_ArtistPictureByID(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", deezerTestEndpoint+"/artist/412",
		httpmock.NewStringResponder(http.StatusOK, `{
  "id": 412,
  "name": "Queen",
  "picture_medium": "https://cdn.test/queen-250.jpg",
  "picture_big": "https://cdn.test/queen-500.jpg",
  "picture_xl": "https://cdn.test/queen-1000.jpg"
}`))

	d := NewDeezer(deezerTestEndpoint, client)
	u, err := d.ArtistPictureByID(context.Background(), "412")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/queen-500.jpg", u, "picture_big preferred over xl and medium")
}

func TestDeezer_ArtistPictureByID_SizeFallback(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", deezerTestEndpoint+"/artist/412",
		httpmock.NewStringResponder(http.StatusOK, `{
  "id": 412,
  "name": "Queen",
  "picture_medium": "https://cdn.test/queen-250.jpg"
}`))

	d := NewDeezer(deezerTestEndpoint, client)
	u, err := d.ArtistPictureByID(context.Background(), "412")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/queen-250.jpg", u)
}

func TestDeezer_ArtistPictureByID_InBandError(t *testing.T) {
	client := newMockedClient(t)
	// Deezer reports unknown ids inside a 200 body.
	httpmock.RegisterResponder("GET", deezerTestEndpoint+"/artist/999999",
		httpmock.NewStringResponder(http.StatusOK,
			`{"error": {"type": "DataException", "message": "no data", "code": 800}}`))

	d := NewDeezer(deezerTestEndpoint, client)
	_, err := d.ArtistPictureByID(context.Background(), "999999")

	assert.ErrorIs(t, err, ErrNoArtwork)
}

func TestDeezer_SearchArtistPicture(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://deezer\.test/search/artist/`,
		httpmock.NewStringResponder(http.StatusOK, `{
  "data": [
    {"id": 412, "name": "Queen", "picture_big": "https://cdn.test/queen-500.jpg"},
    {"id": 413, "name": "Queensrÿche", "picture_big": "https://cdn.test/other.jpg"}
  ],
  "total": 2
}`))

	d := NewDeezer(deezerTestEndpoint, client)
	u, err := d.SearchArtistPicture(context.Background(), "Queen")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/queen-500.jpg", u, "first match wins")
}

func TestDeezer_SearchArtistPicture_NoResults(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://deezer\.test/search/artist/`,
		httpmock.NewStringResponder(http.StatusOK, `{"data": [], "total": 0}`))

	d := NewDeezer(deezerTestEndpoint, client)
	_, err := d.SearchArtistPicture(context.Background(), "Nobody Anyone Knows")

	assert.ErrorIs(t, err, ErrNoArtwork)
}

func TestDeezer_SearchAlbumCover(t *testing.T) {
	client := newMockedClient(t)
	var capturedQuery string
	httpmock.RegisterResponder("GET", `=~^https://deezer\.test/search`,
		func(req *http.Request) (*http.Response, error) {
			capturedQuery = req.URL.Query().Get("q")
			return httpmock.NewStringResponse(http.StatusOK, `{
  "data": [{
    "id": 1,
    "title": "Bohemian Rhapsody",
    "album": {
      "id": 302127,
      "title": "A Night at the Opera",
      "cover_big": "https://cdn.test/opera-500.jpg",
      "cover_xl": "https://cdn.test/opera-1000.jpg"
    }
  }],
  "total": 1
}`), nil
		})

	d := NewDeezer(deezerTestEndpoint, client)
	u, err := d.SearchAlbumCover(context.Background(), "Queen", "A Night at the Opera")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/opera-500.jpg", u)
	assert.Equal(t, `artist:"Queen" album:"A Night at the Opera"`, capturedQuery,
		"both names are quoted in the search query")
}

func TestDeezer_SearchAlbumCover_ResultWithoutAlbum(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://deezer\.test/search`,
		httpmock.NewStringResponder(http.StatusOK, `{"data": [{"id": 1, "title": "stray track"}], "total": 1}`))

	d := NewDeezer(deezerTestEndpoint, client)
	_, err := d.SearchAlbumCover(context.Background(), "Queen", "Jazz")

	require.Error(t, err)
	assert.True(t, IsDecode(err))
}

func TestDeezer_ServerError(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://deezer\.test/search/artist/`,
		httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway"))

	d := NewDeezer(deezerTestEndpoint, client)
	_, err := d.SearchArtistPicture(context.Background(), "Queen")

	require.Error(t, err)
	assert.True(t, IsServerSide(err))
	code, _ := StatusCode(err)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestDeezer_ResultWithoutPictures(t *testing.T) {
	client := newMockedClient(t)
	httpmock.RegisterResponder("GET", `=~^https://deezer\.test/search/artist/`,
		httpmock.NewStringResponder(http.StatusOK, `{"data": [{"id": 412, "name": "Queen"}], "total": 1}`))

	d := NewDeezer(deezerTestEndpoint, client)
	_, err := d.SearchArtistPicture(context.Background(), "Queen")

	assert.ErrorIs(t, err, ErrNoArtwork)
}
