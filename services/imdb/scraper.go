package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"chartseerr/utils/titles"
)

// Scraper fetches the IMDb popularity chart and extracts movie titles from it.
// The chart page embeds a JSON-LD item list; when that block is missing the
// scraper falls back to walking the rendered chart markup.
type Scraper struct {
	sourceURL string
	httpc     *http.Client
}

// rankPrefixPattern matches the "12. " ordinal the chart prepends to each
// rendered title.
var rankPrefixPattern = regexp.MustCompile(`^\d+\.\s*`)

func NewScraper(sourceURL string, httpc *http.Client) *Scraper {
	if httpc == nil {
		httpc = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	return &Scraper{sourceURL: sourceURL, httpc: httpc}
}

// linkedDataList is the subset of the chart's JSON-LD block we care about.
type linkedDataList struct {
	ItemListElement []struct {
		Item struct {
			Name string `json:"name"`
		} `json:"item"`
	} `json:"itemListElement"`
}

// TopMovies returns up to limit unique movie titles from the chart, in chart
// order. Uniqueness is judged on the normalized title, so an entry that only
// differs in punctuation from an earlier one is skipped.
func (s *Scraper) TopMovies(ctx context.Context, limit int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	// IMDb rejects requests carrying the default Go user agent
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart fetch returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse chart page: %w", err)
	}

	if raw := doc.Find(`script[type="application/ld+json"]`).First().Text(); strings.TrimSpace(raw) != "" {
		movies, err := titlesFromLinkedData(raw, limit)
		if err != nil {
			return nil, fmt.Errorf("parse chart JSON-LD: %w", err)
		}
		log.Printf("[imdb] scraped %d titles from JSON-LD", len(movies))
		return movies, nil
	}

	movies := titlesFromMarkup(doc, limit)
	log.Printf("[imdb] scraped %d titles from chart markup", len(movies))
	return movies, nil
}

func titlesFromLinkedData(raw string, limit int) ([]string, error) {
	var list linkedDataList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}

	movies := make([]string, 0, limit)
	seen := make(map[string]bool)
	for _, element := range list.ItemListElement {
		name := strings.TrimSpace(element.Item.Name)
		if name != "" {
			norm := titles.Normalize(name)
			if !seen[norm] {
				movies = append(movies, name)
				seen[norm] = true
			}
		}
		if len(movies) >= limit {
			break
		}
	}
	return movies, nil
}

func titlesFromMarkup(doc *goquery.Document, limit int) []string {
	movies := make([]string, 0, limit)
	seen := make(map[string]bool)

	doc.Find("ul.ipc-metadata-list li.ipc-metadata-list-summary-item a h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := rankPrefixPattern.ReplaceAllString(strings.TrimSpace(sel.Text()), "")
		norm := titles.Normalize(title)
		if norm != "" && !seen[norm] {
			movies = append(movies, title)
			seen[norm] = true
		}
		return len(movies) < limit
	})
	return movies
}
