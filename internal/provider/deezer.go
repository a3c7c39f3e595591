// deezer.go implements the Deezer client. Deezer needs no API key and is
// used three ways: artist pictures by numeric artist id, artist pictures by
// name search, and album covers by artist+album search (the fallback when
// the Cover Art Archive has nothing).
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"

	"github.com/fennecbyte/covercache/internal/httpclient"
	"github.com/fennecbyte/covercache/internal/logging"
)

const deezerProviderName = "deezer"

// Picture size preference for artists: 500x500 first, then 1000x1000, then
// 250x250. Albums use the cover_* variants of the same sizes.
var (
	artistPictureKeys = []string{"picture_big", "picture_xl", "picture_medium"}
	albumCoverKeys    = []string{"cover_big", "cover_xl", "cover_medium"}
)

// Deezer fetches artist pictures and album covers from api.deezer.com.
type Deezer struct {
	endpoint string
	client   *httpclient.Client
	log      *slog.Logger
}

// NewDeezer creates a Deezer client against endpoint (e.g.
// "https://api.deezer.com").
func NewDeezer(endpoint string, client *httpclient.Client) *Deezer {
	return &Deezer{
		endpoint: endpoint,
		client:   client,
		log:      logging.ForService("provider").With("provider", deezerProviderName),
	}
}

// ArtistPictureByID returns the picture URL for a Deezer artist id.
func (d *Deezer) ArtistPictureByID(ctx context.Context, artistID string) (string, error) {
	logger := d.log.With("request_id", uuid.New().String(), "artist_id", artistID)

	obj, err := d.get(ctx, logger, d.endpoint+"/artist/"+url.PathEscape(artistID))
	if err != nil {
		return "", err
	}

	// Deezer reports unknown ids inside a 200 response.
	if errObj, err := obj.GetObject("error"); err == nil && errObj != nil {
		logger.Debug("Deezer has no artist with this id")
		return "", ErrNoArtwork
	}

	return pickURL(obj, artistPictureKeys, logger)
}

// SearchArtistPicture searches Deezer by artist name and returns the best
// picture URL of the first match.
func (d *Deezer) SearchArtistPicture(ctx context.Context, artist string) (string, error) {
	logger := d.log.With("request_id", uuid.New().String(), "artist", artist)

	searchURL := fmt.Sprintf("%s/search/artist/?q=%s", d.endpoint, url.QueryEscape(artist))
	obj, err := d.get(ctx, logger, searchURL)
	if err != nil {
		return "", err
	}

	first, err := firstResult(obj)
	if err != nil {
		logger.Warn("Failed to parse artist search response", "error", err)
		return "", &DecodeError{Provider: deezerProviderName, Err: err}
	}
	if first == nil {
		logger.Debug("No artist found")
		return "", ErrNoArtwork
	}

	if name, err := first.GetString("name"); err == nil {
		logger.Debug("Found artist", "matched_name", name)
	}
	return pickURL(first, artistPictureKeys, logger)
}

// SearchAlbumCover searches Deezer by artist and album name and returns the
// cover URL of the first match.
func (d *Deezer) SearchAlbumCover(ctx context.Context, artist, album string) (string, error) {
	logger := d.log.With("request_id", uuid.New().String(), "artist", artist, "album", album)

	query := fmt.Sprintf("artist:%q album:%q", artist, album)
	searchURL := fmt.Sprintf("%s/search?q=%s", d.endpoint, url.QueryEscape(query))
	obj, err := d.get(ctx, logger, searchURL)
	if err != nil {
		return "", err
	}

	first, err := firstResult(obj)
	if err != nil {
		logger.Warn("Failed to parse album search response", "error", err)
		return "", &DecodeError{Provider: deezerProviderName, Err: err}
	}
	if first == nil {
		logger.Debug("No album results found")
		return "", ErrNoArtwork
	}

	albumObj, err := first.GetObject("album")
	if err != nil {
		logger.Warn("Album search result missing album object", "error", err)
		return "", &DecodeError{Provider: deezerProviderName, Err: err}
	}
	return pickURL(albumObj, albumCoverKeys, logger)
}

// get issues the request and decodes the JSON body, mapping the HTTP status
// to the provider error taxonomy.
func (d *Deezer) get(ctx context.Context, logger *slog.Logger, requestURL string) (*jason.Object, error) {
	logger.Debug("Deezer request", "url", requestURL)

	resp, err := d.client.Get(ctx, requestURL)
	if err != nil {
		logger.Debug("Deezer request failed", "error", err)
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoArtwork
	case resp.StatusCode != http.StatusOK:
		logger.Warn("Deezer returned unexpected status", "status", resp.StatusCode)
		return nil, &StatusError{Provider: deezerProviderName, StatusCode: resp.StatusCode}
	}

	obj, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		logger.Warn("Failed to parse Deezer response", "error", err)
		return nil, &DecodeError{Provider: deezerProviderName, Err: err}
	}
	return obj, nil
}

// firstResult returns the first entry of a Deezer search "data" array, nil
// when the array is empty. A missing array is a decode error for the caller
// to wrap; Deezer always sends one, possibly empty.
func firstResult(obj *jason.Object) (*jason.Object, error) {
	data, err := obj.GetObjectArray("data")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data[0], nil
}

// pickURL returns the first non-empty URL among keys in preference order.
func pickURL(obj *jason.Object, keys []string, logger *slog.Logger) (string, error) {
	for _, key := range keys {
		if u, err := obj.GetString(key); err == nil && u != "" {
			logger.Debug("Selected picture", "field", key, "url", u)
			return u, nil
		}
	}
	logger.Debug("Result carries no picture URLs")
	return "", ErrNoArtwork
}
