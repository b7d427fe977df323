package diary

import (
	"sort"
	"sync"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// Reducer derives the next log from the current one without mutating it
type Reducer func(domain.DailyLog) (domain.DailyLog, error)

// Store holds the daily logs in memory. Writers replace the whole snapshot
// under the lock and never modify a snapshot once handed out.
type Store struct {
	mu   sync.RWMutex
	logs domain.Snapshot
}

func NewStore(initial domain.Snapshot) *Store {
	s := &Store{}
	s.Replace(initial)
	return s
}

// Replace swaps in a new set of logs, normalizing each one
func (s *Store) Replace(logs domain.Snapshot) {
	next := make(domain.Snapshot, len(logs))
	for date, log := range logs {
		if log.Date == "" {
			log.Date = date
		}
		next[date] = log.Normalize()
	}
	s.mu.Lock()
	s.logs = next
	s.mu.Unlock()
}

// Snapshot returns the current logs
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs
}

// Get returns the stored log of date, or the default log without storing it
func (s *Store) Get(date string) domain.DailyLog {
	s.mu.RLock()
	log, ok := s.logs[date]
	s.mu.RUnlock()
	if !ok {
		return domain.NewDailyLog(date)
	}
	return log.Clone()
}

// Has reports whether date has been stored
func (s *Store) Has(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.logs[date]
	return ok
}

// Update applies fn to the log of date and stores the result. On error the
// store is left as it was.
func (s *Store) Update(date string, fn Reducer) (domain.DailyLog, domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.logs[date]
	if !ok {
		current = domain.NewDailyLog(date)
	}
	next, err := fn(current.Clone())
	if err != nil {
		return current.Clone(), s.logs, err
	}
	next.Date = date

	logs := make(domain.Snapshot, len(s.logs)+1)
	for d, l := range s.logs {
		logs[d] = l
	}
	logs[date] = next
	s.logs = logs
	return next.Clone(), logs, nil
}

// Recent returns up to n stored logs dated on or before end, oldest first
func (s *Store) Recent(end string, n int) []domain.DailyLog {
	s.mu.RLock()
	logs := s.logs
	s.mu.RUnlock()

	dates := make([]string, 0, len(logs))
	for date := range logs {
		if date <= end {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	if n > 0 && len(dates) > n {
		dates = dates[len(dates)-n:]
	}

	out := make([]domain.DailyLog, 0, len(dates))
	for _, date := range dates {
		out = append(out, logs[date].Clone())
	}
	return out
}
