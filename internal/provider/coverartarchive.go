// coverartarchive.go implements the Cover Art Archive client. Covers are
// looked up by MusicBrainz release ID; the archive serves image lists as
// JSON with per-size thumbnail URLs.
package provider

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"

	"github.com/fennecbyte/covercache/internal/httpclient"
	"github.com/fennecbyte/covercache/internal/logging"
)

const caaProviderName = "coverartarchive"

// CoverArtArchive fetches album cover URLs from coverartarchive.org.
type CoverArtArchive struct {
	endpoint string
	client   *httpclient.Client
	log      *slog.Logger
}

// NewCoverArtArchive creates a Cover Art Archive client against endpoint
// (e.g. "https://coverartarchive.org").
func NewCoverArtArchive(endpoint string, client *httpclient.Client) *CoverArtArchive {
	return &CoverArtArchive{
		endpoint: endpoint,
		client:   client,
		log:      logging.ForService("provider").With("provider", caaProviderName),
	}
}

// FrontCoverURL returns the URL of the best front-cover thumbnail for the
// given release ID. Returns ErrNoArtwork when the archive has no cover for
// the release.
func (c *CoverArtArchive) FrontCoverURL(ctx context.Context, releaseID string) (string, error) {
	reqID := uuid.New().String()
	logger := c.log.With("request_id", reqID, "release_id", releaseID)

	url := c.endpoint + "/release/" + releaseID
	logger.Debug("Fetching cover art metadata", "url", url)

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		logger.Debug("Cover art metadata request failed", "error", err)
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		logger.Debug("No cover art for release")
		return "", ErrNoArtwork
	case resp.StatusCode != http.StatusOK:
		logger.Warn("Cover Art Archive returned unexpected status", "status", resp.StatusCode)
		return "", &StatusError{Provider: caaProviderName, StatusCode: resp.StatusCode}
	}

	doc, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		logger.Warn("Failed to parse cover art response", "error", err)
		return "", &DecodeError{Provider: caaProviderName, Err: err}
	}

	images, err := doc.GetObjectArray("images")
	if err != nil {
		logger.Warn("Cover art response missing images array", "error", err)
		return "", &DecodeError{Provider: caaProviderName, Err: err}
	}
	if len(images) == 0 {
		return "", ErrNoArtwork
	}

	// Prefer the image flagged as the front cover, fall back to the first.
	front := images[0]
	for _, img := range images {
		if isFront, err := img.GetBoolean("front"); err == nil && isFront {
			front = img
			break
		}
	}

	// Thumbnail size preference: 500px, 250px, then the legacy
	// large/small aliases.
	for _, size := range []string{"500", "250", "large", "small"} {
		if u, err := front.GetString("thumbnails", size); err == nil && u != "" {
			logger.Debug("Selected thumbnail", "size", size, "url", u)
			return u, nil
		}
	}

	logger.Debug("Front image has no usable thumbnails")
	return "", ErrNoArtwork
}
