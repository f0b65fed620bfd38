package server

import "sync"

// Statistics is the server's additive operation counters,
// guarded by a single lock rather than per-field atomics: updates are
// always additive and read together as one consistent snapshot.
type Statistics struct {
	mu sync.Mutex

	totalMessagesProcessed uint64
	totalMovesPlayed       uint64
	totalGamesCreated      uint64
	peakConcurrentClients  int
	startedAt              int64 // unix seconds
	uptimeSecs             int64
}

func newStatistics(startedAt int64) *Statistics {
	return &Statistics{startedAt: startedAt}
}

func (s *Statistics) incMessagesProcessed() {
	s.mu.Lock()
	s.totalMessagesProcessed++
	s.mu.Unlock()
}

func (s *Statistics) incMovesPlayed() {
	s.mu.Lock()
	s.totalMovesPlayed++
	s.mu.Unlock()
}

func (s *Statistics) incGamesCreated() {
	s.mu.Lock()
	s.totalGamesCreated++
	s.mu.Unlock()
}

func (s *Statistics) observeConcurrentClients(n int) {
	s.mu.Lock()
	if n > s.peakConcurrentClients {
		s.peakConcurrentClients = n
	}
	s.mu.Unlock()
}

func (s *Statistics) refreshUptime(now int64) {
	s.mu.Lock()
	s.uptimeSecs = now - s.startedAt
	s.mu.Unlock()
}

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	TotalMessagesProcessed uint64
	TotalMovesPlayed       uint64
	TotalGamesCreated      uint64
	PeakConcurrentClients  int
	UptimeSecs             int64
}

func (s *Statistics) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TotalMessagesProcessed: s.totalMessagesProcessed,
		TotalMovesPlayed:       s.totalMovesPlayed,
		TotalGamesCreated:      s.totalGamesCreated,
		PeakConcurrentClients:  s.peakConcurrentClients,
		UptimeSecs:             s.uptimeSecs,
	}
}
