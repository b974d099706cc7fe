package requester

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"chartseerr/config"
	"chartseerr/services/jellyseerr"
)

// ChartScraper supplies the ranked movie titles for a cycle.
type ChartScraper interface {
	TopMovies(ctx context.Context, limit int) ([]string, error)
}

// MediaService is the slice of the Jellyseerr client the loop needs.
type MediaService interface {
	Search(ctx context.Context, title string) (*jellyseerr.SearchResponse, error)
	Request(ctx context.Context, tmdbID, mediaID int) (bool, string)
}

// Service drives the poll loop: scrape the chart, look each title up, submit
// a request for every match, then sleep until the next cycle. Failures of a
// single title or a whole cycle are logged and absorbed; nothing here stops
// the loop.
type Service struct {
	settings *config.Settings
	scraper  ChartScraper
	media    MediaService

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(settings *config.Settings, scraper ChartScraper, media MediaService) *Service {
	return &Service{
		settings: settings,
		scraper:  scraper,
		media:    media,
	}
}

// Start begins the background poll loop. The first cycle runs immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.runLoop()

	log.Println("[requester] Poll loop started")
	return nil
}

// Stop cancels the loop and waits for the in-flight cycle to wind down, up to
// the deadline on ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[requester] Poll loop stopped gracefully")
	case <-ctx.Done():
		log.Println("[requester] Poll loop stopped (timeout)")
	}

	s.running = false
	return nil
}

func (s *Service) runLoop() {
	defer s.wg.Done()

	interval := time.Duration(s.settings.RunIntervalDays) * 24 * time.Hour

	for {
		s.RunCycle(s.ctx)

		log.Printf("[requester] Sleeping for %d day(s)", s.settings.RunIntervalDays)
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// RunCycle performs one full scrape, match, request pass. Exported so an
// operator build or a test can trigger a single pass without the loop.
func (s *Service) RunCycle(ctx context.Context) {
	cycle := uuid.NewString()[:8]

	movies, err := s.scraper.TopMovies(ctx, s.settings.MovieLimit)
	if err != nil {
		log.Printf("[requester] ❌ cycle %s: chart scrape failed: %v", cycle, err)
		return
	}
	if len(movies) == 0 {
		log.Printf("[requester] ⚠️ cycle %s: no movies found", cycle)
		return
	}

	log.Printf("[requester] cycle %s: %d movies to process", cycle, len(movies))
	for i, movie := range movies {
		if ctx.Err() != nil {
			log.Printf("[requester] cycle %s: cancelled after %d/%d titles", cycle, i, len(movies))
			return
		}
		log.Printf("[requester] cycle %s: [%d/%d] searching: %s", cycle, i+1, len(movies), movie)
		s.processTitle(ctx, cycle, movie)
	}
}

// processTitle handles a single scraped title. Every failure path ends in a
// log line so one bad title never aborts the rest of the cycle.
func (s *Service) processTitle(ctx context.Context, cycle, movie string) {
	resp, err := s.media.Search(ctx, movie)
	if err != nil {
		log.Printf("[requester] ❌ cycle %s: error with %q: %v", cycle, movie, err)
		return
	}

	match, ok := jellyseerr.BestMatch(movie, resp)
	if !ok {
		log.Printf("[requester] ❌ cycle %s: not found in Jellyseerr: %s", cycle, movie)
		return
	}

	if s.settings.Verbose() {
		log.Printf("[requester] cycle %s: matched %q: tmdbId %d, mediaId %d, imdbId %q", cycle, movie, match.TmdbID, match.MediaID, match.ImdbID)
	}

	s.media.Request(ctx, match.TmdbID, match.MediaID)
}
