package requester

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chartseerr/config"
	"chartseerr/services/jellyseerr"
)

type fakeScraper struct {
	movies []string
	err    error
	calls  int
}

func (f *fakeScraper) TopMovies(ctx context.Context, limit int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.movies) > limit {
		return f.movies[:limit], nil
	}
	return f.movies, nil
}

type submittedRequest struct {
	TmdbID  int
	MediaID int
}

type fakeMedia struct {
	mu        sync.Mutex
	responses map[string]*jellyseerr.SearchResponse
	searchErr map[string]error
	requests  []submittedRequest
}

func (f *fakeMedia) Search(ctx context.Context, title string) (*jellyseerr.SearchResponse, error) {
	if err := f.searchErr[title]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[title]; ok {
		return resp, nil
	}
	return &jellyseerr.SearchResponse{}, nil
}

func (f *fakeMedia) Request(ctx context.Context, tmdbID, mediaID int) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, submittedRequest{TmdbID: tmdbID, MediaID: mediaID})
	return true, `{"id":1}`
}

func (f *fakeMedia) submitted() []submittedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submittedRequest(nil), f.requests...)
}

func testSettings() *config.Settings {
	return &config.Settings{
		MovieLimit:      50,
		RunIntervalDays: 7,
	}
}

func tmdb(v int) *int { return &v }

func TestRunCycleRequestsMatchedTitlesOnly(t *testing.T) {
	scraper := &fakeScraper{movies: []string{"Dune: Part Two", "Oppenheimer"}}
	media := &fakeMedia{
		responses: map[string]*jellyseerr.SearchResponse{
			"Dune: Part Two": {Results: []jellyseerr.SearchResult{
				{MediaType: "movie", ID: 5, Title: "Dune: Part Two", TmdbID: tmdb(693134)},
			}},
			// Only a tv result for Oppenheimer, so no request should go out
			"Oppenheimer": {Results: []jellyseerr.SearchResult{
				{MediaType: "tv", ID: 9, Title: "Oppenheimer"},
			}},
		},
	}

	svc := NewService(testSettings(), scraper, media)
	svc.RunCycle(context.Background())

	requests := media.submitted()
	if len(requests) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(requests))
	}
	if requests[0] != (submittedRequest{TmdbID: 693134, MediaID: 5}) {
		t.Fatalf("unexpected request %+v", requests[0])
	}
}

func TestRunCycleSurvivesPerTitleFailures(t *testing.T) {
	scraper := &fakeScraper{movies: []string{"Broken", "The Matrix"}}
	media := &fakeMedia{
		searchErr: map[string]error{"Broken": errors.New("connection reset")},
		responses: map[string]*jellyseerr.SearchResponse{
			"The Matrix": {Results: []jellyseerr.SearchResult{
				{MediaType: "movie", ID: 1, Title: "The Matrix", TmdbID: tmdb(603)},
			}},
		},
	}

	svc := NewService(testSettings(), scraper, media)
	svc.RunCycle(context.Background())

	requests := media.submitted()
	if len(requests) != 1 {
		t.Fatalf("expected the cycle to continue past the failed title, got %d requests", len(requests))
	}
	if requests[0].TmdbID != 603 {
		t.Fatalf("unexpected request %+v", requests[0])
	}
}

func TestRunCycleScrapeFailureIsAbsorbed(t *testing.T) {
	scraper := &fakeScraper{err: errors.New("chart unreachable")}
	media := &fakeMedia{}

	svc := NewService(testSettings(), scraper, media)
	svc.RunCycle(context.Background())

	if len(media.submitted()) != 0 {
		t.Fatalf("expected no requests after a failed scrape")
	}
}

func TestRunCycleHonorsMovieLimit(t *testing.T) {
	settings := testSettings()
	settings.MovieLimit = 1

	scraper := &fakeScraper{movies: []string{"The Matrix", "Inception"}}
	media := &fakeMedia{
		responses: map[string]*jellyseerr.SearchResponse{
			"The Matrix": {Results: []jellyseerr.SearchResult{
				{MediaType: "movie", ID: 1, Title: "The Matrix", TmdbID: tmdb(603)},
			}},
			"Inception": {Results: []jellyseerr.SearchResult{
				{MediaType: "movie", ID: 2, Title: "Inception", TmdbID: tmdb(27205)},
			}},
		},
	}

	svc := NewService(settings, scraper, media)
	svc.RunCycle(context.Background())

	if len(media.submitted()) != 1 {
		t.Fatalf("expected the limit to cap processing at one title")
	}
}

func TestStartRunsFirstCycleImmediatelyAndStops(t *testing.T) {
	scraper := &fakeScraper{movies: []string{"The Matrix"}}
	media := &fakeMedia{
		responses: map[string]*jellyseerr.SearchResponse{
			"The Matrix": {Results: []jellyseerr.SearchResult{
				{MediaType: "movie", ID: 1, Title: "The Matrix", TmdbID: tmdb(603)},
			}},
		},
	}

	svc := NewService(testSettings(), scraper, media)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for len(media.submitted()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("first cycle never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	// Only the immediate cycle should have run; the next one is days away
	if scraper.calls != 1 {
		t.Fatalf("expected a single cycle before stop, got %d", scraper.calls)
	}
}
