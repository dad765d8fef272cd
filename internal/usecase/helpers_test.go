package usecase

import (
	"context"
	"os"
	"sync"
	"time"

	"StockStats/internal/domain/models"
	domrepo "StockStats/internal/domain/repository"
)

// stubSource serves fixed series per symbol and counts calls.
type stubSource struct {
	mu     sync.Mutex
	data   map[string]models.Series
	errs   map[string]error
	calls  int
	last   time.Duration
	starts []time.Time
	ends   []time.Time
}

func newStubSource() *stubSource {
	return &stubSource{data: map[string]models.Series{}, errs: map[string]error{}}
}

func (s *stubSource) Get(_ context.Context, symbol string, start, end time.Time, timeout time.Duration) (models.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = timeout
	s.starts = append(s.starts, start)
	s.ends = append(s.ends, end)
	if err, ok := s.errs[symbol]; ok {
		return nil, err
	}
	return s.data[symbol], nil
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// bars builds a series from (high, low, close) triples on consecutive days.
func bars(hlc ...[3]float64) models.Series {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make(models.Series, len(hlc))
	for i, v := range hlc {
		out[i] = models.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   v[2],
			High:   v[0],
			Low:    v[1],
			Close:  v[2],
			Volume: 1000,
		}
	}
	return out
}

// trend builds n bars with a gently rising close.
func trend(n int) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.Series, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)*0.5 + float64(i%3)
		out[i] = models.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c - 0.2,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1e6 + float64(i%5)*1e4,
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domrepo.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domrepo.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o644)
}
