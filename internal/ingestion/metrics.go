package ingestion

import (
	"sync"
	"time"
)

// FeedStats tracks ingestion throughput for the health endpoint.
type FeedStats struct {
	MessagesReceived      int64         `json:"messagesReceived"`
	MessagesProcessed     int64         `json:"messagesProcessed"`
	MessagesInvalid       int64         `json:"messagesInvalid"`
	MessagesFailed        int64         `json:"messagesFailed"`
	MessagesDropped       int64         `json:"messagesDropped"`
	StatusChanges         int64         `json:"statusChanges"`
	LastProcessedAt       time.Time     `json:"lastProcessedAt"`
	AverageProcessingTime time.Duration `json:"averageProcessingTime"`
}

// StatsTracker provides a goroutine-safe wrapper around FeedStats.
type StatsTracker struct {
	mu    sync.RWMutex
	stats FeedStats
}

func NewStatsTracker() *StatsTracker {
	return &StatsTracker{}
}

func (t *StatsTracker) Update(fn func(*FeedStats)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.stats)
}

// Snapshot returns a copy of the current stats.
func (t *StatsTracker) Snapshot() FeedStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// observe folds one processing duration into the running average.
func (s *FeedStats) observe(d time.Duration, at time.Time) {
	s.MessagesProcessed++
	s.LastProcessedAt = at
	if s.AverageProcessingTime == 0 {
		s.AverageProcessingTime = d
		return
	}
	s.AverageProcessingTime = (s.AverageProcessingTime + d) / 2
}
