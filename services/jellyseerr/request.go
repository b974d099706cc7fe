package jellyseerr

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
)

type acquisitionRequest struct {
	MediaType string `json:"mediaType"`
	TmdbID    int    `json:"tmdbId"`
	MediaID   int    `json:"mediaId"`
	Is4K      bool   `json:"is4k"`
}

// Request submits an acquisition request for a matched movie and reports
// whether it was accepted, along with the response body for the log. It never
// fails hard: transport errors and rejections both come back as (false, text)
// so a single bad title can't take down a cycle.
func (c *Client) Request(ctx context.Context, tmdbID, mediaID int) (bool, string) {
	payload := acquisitionRequest{
		MediaType: "movie",
		TmdbID:    tmdbID,
		MediaID:   mediaID,
		Is4K:      c.is4k,
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/request", nil, payload)
	if err != nil {
		log.Printf("[jellyseerr] ❌ request failed: %v", err)
		return false, err.Error()
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	text := strings.TrimSpace(string(body))

	if resp.StatusCode == http.StatusCreated {
		log.Printf("[jellyseerr] ✅ requested (tmdbId: %d, mediaId: %d, 4K: %t)", tmdbID, mediaID, c.is4k)
		return true, text
	}

	log.Printf("[jellyseerr] ⚠️ request rejected: %s %s", resp.Status, text)
	return false, text
}
