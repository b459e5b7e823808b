package crawler

import (
	"sync"

	"github.com/use-agent/harvester/models"
	"github.com/use-agent/harvester/simhash"
)

// crawlState is the mutable state of a single crawl. Every method is safe
// for concurrent use.
//
// A page slot is reserved by admit and settled by exactly one of commit or
// release, so len(collected)+inflight never exceeds maxPages.
type crawlState struct {
	mu        sync.Mutex
	maxPages  int
	visited   map[string]struct{}
	collected []models.ScrapedPage
	inflight  int
	prints    simhash.Set
}

func newCrawlState(maxPages int) *crawlState {
	return &crawlState{
		maxPages: maxPages,
		visited:  make(map[string]struct{}),
	}
}

// admit reserves a page slot for u. It fails when the budget is spent or u
// was already visited; on success u is marked visited.
func (s *crawlState) admit(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.collected)+s.inflight >= s.maxPages {
		return false
	}
	if _, ok := s.visited[u]; ok {
		return false
	}
	s.visited[u] = struct{}{}
	s.inflight++
	return true
}

// markVisited records u without reserving a slot, e.g. a redirect target.
// It reports whether u was new.
func (s *crawlState) markVisited(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[u]; ok {
		return false
	}
	s.visited[u] = struct{}{}
	return true
}

// release gives back a reserved slot whose page was not collected.
func (s *crawlState) release() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// commit settles a reserved slot by appending page. When nearDup > 0 and
// fp is within nearDup bits of an already collected page, the page is
// dropped and commit returns false.
func (s *crawlState) commit(page models.ScrapedPage, fp uint64, nearDup int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	if nearDup > 0 && s.prints.Near(fp, nearDup) {
		return false
	}
	if fp != 0 {
		s.prints.Add(fp)
	}
	s.collected = append(s.collected, page)
	return true
}

// full reports whether no further slot can be reserved.
func (s *crawlState) full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collected)+s.inflight >= s.maxPages
}

func (s *crawlState) pages() []models.ScrapedPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScrapedPage, len(s.collected))
	copy(out, s.collected)
	return out
}
