package jellyseerr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"chartseerr/utils/titles"
)

// SearchResponse is the subset of the /api/v1/search payload we consume.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is a single search candidate. The TMDB id and the IMDb id are
// optional, and the IMDb id shows up in two different places depending on
// whether Jellyseerr already tracks the item.
type SearchResult struct {
	MediaType string     `json:"mediaType"`
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	TmdbID    *int       `json:"tmdbId,omitempty"`
	ImdbID    string     `json:"imdbId,omitempty"`
	MediaInfo *MediaInfo `json:"mediaInfo,omitempty"`
}

type MediaInfo struct {
	ImdbID string `json:"imdbId,omitempty"`
}

// tmdbID is the single place the provider-id fallback rule lives: a result
// without a distinct TMDB id is requested by its internal media id instead.
func (r SearchResult) tmdbID() int {
	if r.TmdbID != nil {
		return *r.TmdbID
	}
	return r.ID
}

func (r SearchResult) imdbID() string {
	if r.MediaInfo != nil && r.MediaInfo.ImdbID != "" {
		return r.MediaInfo.ImdbID
	}
	return r.ImdbID
}

// Match identifies the movie selected for a scraped title.
type Match struct {
	ImdbID  string
	MediaID int
	TmdbID  int
}

// Search queries the service's search index for a title. Transport-level
// failures are retried with exponential backoff (2s, 4s); HTTP error statuses
// are not, since repeating a well-formed rejected query won't change the
// answer.
func (c *Client) Search(ctx context.Context, title string) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("query", title)

	var out SearchResponse
	err := retry.Do(
		func() error {
			resp, err := c.do(ctx, http.MethodGet, "/api/v1/search", query, nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return retry.Unrecoverable(fmt.Errorf("search %q failed: %s: %s", title, resp.Status, strings.TrimSpace(string(body))))
			}

			out = SearchResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode search response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BestMatch picks the movie to request for a scraped title: the first
// movie-typed result whose normalized title contains the normalized query.
// First match wins on purpose; there is no scoring across candidates.
func BestMatch(query string, resp *SearchResponse) (Match, bool) {
	if resp == nil {
		return Match{}, false
	}

	normQuery := titles.Normalize(query)
	for _, result := range resp.Results {
		if result.MediaType != "movie" {
			continue
		}
		// A record with neither a display title nor a TMDB id is unusable
		if result.Title == "" && result.TmdbID == nil {
			continue
		}
		if strings.Contains(titles.Normalize(result.Title), normQuery) {
			return Match{
				ImdbID:  result.imdbID(),
				MediaID: result.ID,
				TmdbID:  result.tmdbID(),
			}, true
		}
	}
	return Match{}, false
}
