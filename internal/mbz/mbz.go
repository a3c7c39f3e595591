// Package mbz implements the MusicBrainz release resolver: it turns an
// (artist, album) pair into a release MBID usable against the Cover Art
// Archive. MusicBrainz enforces 1 request per second per client, so the
// client carries its own rate limiter independent of the resolver throttle.
package mbz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fennecbyte/covercache/internal/errors"
	"github.com/fennecbyte/covercache/internal/httpclient"
	"github.com/fennecbyte/covercache/internal/logging"
)

// ReleaseMatch is the best release found for a query.
type ReleaseMatch struct {
	ReleaseID string
	Title     string
	Artist    string
	Score     int // MusicBrainz search score, 0-100
}

// ReleaseQuery names one album to resolve.
type ReleaseQuery struct {
	Artist string
	Album  string
}

// Client searches MusicBrainz for release identifiers.
type Client struct {
	endpoint string
	client   *httpclient.Client
	limiter  *rate.Limiter
	log      *slog.Logger
}

// New creates a MusicBrainz client against endpoint (e.g.
// "https://musicbrainz.org/ws/2") limited to requestsPerSecond.
func New(endpoint string, client *httpclient.Client, requestsPerSecond float64) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		endpoint: endpoint,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		log:      logging.ForService("mbz"),
	}
}

// SearchRelease finds the best-matching release for artist and album.
// Returns (nil, nil) when MusicBrainz has no match at all.
func (c *Client) SearchRelease(ctx context.Context, artist, album string) (*ReleaseMatch, error) {
	reqID := uuid.New().String()
	logger := c.log.With("request_id", reqID, "artist", artist, "album", album)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Lucene query over the release index.
	query := fmt.Sprintf("artist:%q AND release:%q", artist, album)
	searchURL := fmt.Sprintf("%s/release?query=%s&fmt=json&limit=5",
		c.endpoint, url.QueryEscape(query))
	logger.Debug("Searching MusicBrainz", "url", searchURL)

	resp, err := c.client.Get(ctx, searchURL)
	if err != nil {
		logger.Debug("MusicBrainz request failed", "error", err)
		return nil, errors.New(err).
			Component("mbz").
			Category(errors.CategoryNetwork).
			Context("operation", "search_release").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("MusicBrainz returned unexpected status", "status", resp.StatusCode)
		return nil, errors.Newf("musicbrainz returned HTTP %d", resp.StatusCode).
			Component("mbz").
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Build()
	}

	doc, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		logger.Warn("Failed to parse MusicBrainz response", "error", err)
		return nil, errors.New(err).
			Component("mbz").
			Category(errors.CategoryImageProvider).
			Context("operation", "parse_search_response").
			Build()
	}

	releases, err := doc.GetObjectArray("releases")
	if err != nil || len(releases) == 0 {
		logger.Debug("No releases found")
		return nil, nil
	}

	// Results come back sorted by score; take the best one that carries
	// an id.
	for _, release := range releases {
		id, err := release.GetString("id")
		if err != nil || id == "" {
			continue
		}
		match := &ReleaseMatch{ReleaseID: id}
		if title, err := release.GetString("title"); err == nil {
			match.Title = title
		}
		if score, err := release.GetInt64("score"); err == nil {
			match.Score = int(score)
		}
		if credits, err := release.GetObjectArray("artist-credit"); err == nil && len(credits) > 0 {
			if name, err := credits[0].GetString("name"); err == nil {
				match.Artist = name
			}
		}
		logger.Debug("Best match",
			"release_id", match.ReleaseID,
			"title", match.Title,
			"score", match.Score)
		return match, nil
	}

	return nil, nil
}

// SearchReleases resolves a batch of queries sequentially, respecting the
// rate limit between each. The result slice is index-aligned with queries;
// entries are nil where no match was found or the search failed.
func (c *Client) SearchReleases(ctx context.Context, queries []ReleaseQuery) []*ReleaseMatch {
	results := make([]*ReleaseMatch, len(queries))
	for i, q := range queries {
		if ctx.Err() != nil {
			break
		}
		match, err := c.SearchRelease(ctx, q.Artist, q.Album)
		if err != nil {
			c.log.Warn("Batch search entry failed",
				"artist", q.Artist,
				"album", q.Album,
				"error", err)
			continue
		}
		results[i] = match
	}
	return results
}
