package player

import (
	"context"
	"sync"
	"time"

	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/logw"
)

// Registry indexes players by id, with a derived index from sanitized name
// to id so name lookups and the "name already taken" check stay O(1).
type Registry struct {
	ids idgen.RandomIdSource

	mu       sync.RWMutex
	players  map[string]*Player
	nameToID map[string]string
}

// NewRegistry returns an empty player registry.
func NewRegistry(ids idgen.RandomIdSource) *Registry {
	return &Registry{
		ids:      ids,
		players:  make(map[string]*Player),
		nameToID: make(map[string]string),
	}
}

// Register creates and indexes a new player with the given display name.
// Fails with PlayerAlreadyInGame's sibling error if the sanitized name is
// already taken.
func (r *Registry) Register(ctx context.Context, name string) (*Player, error) {
	sanitized := SanitizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.nameToID[sanitized]; taken {
		return nil, chesserr.New(chesserr.InvalidPlayerName, "player name %q is already registered", name)
	}

	p, err := New(r.ids.NewID(), name)
	if err != nil {
		return nil, err
	}

	r.players[p.ID()] = p
	r.nameToID[sanitized] = p.ID()

	logw.Infof(ctx, "registered player %v (%v)", p.ID(), p.Name())
	return p, nil
}

// Get returns the player by id.
func (r *Registry) Get(playerID string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[playerID]
	return p, ok
}

// GetByName returns the player by display name, sanitized before lookup.
func (r *Registry) GetByName(name string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[SanitizeName(name)]
	if !ok {
		return nil, false
	}
	p, ok := r.players[id]
	return p, ok
}

// Remove deletes a player from the registry entirely.
func (r *Registry) Remove(playerID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil, false
	}
	delete(r.players, playerID)
	delete(r.nameToID, p.Name())
	return p, true
}

// Search returns every registered player matching the criteria.
func (r *Registry) Search(criteria SearchCriteria) []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Player
	for _, p := range r.players {
		if criteria.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// OnlinePlayers returns every player not in the Offline state.
func (r *Registry) OnlinePlayers() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Player
	for _, p := range r.players {
		if p.IsOnline() {
			out = append(out, p)
		}
	}
	return out
}

// IdlePlayers returns players unseen for longer than threshold.
func (r *Registry) IdlePlayers(threshold time.Duration) []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Player
	for _, p := range r.players {
		if p.IsIdle(threshold) {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the total number of registered players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// OnlineCount returns the number of players not in the Offline state.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.players {
		if p.IsOnline() {
			n++
		}
	}
	return n
}

// InGameCount returns the number of players currently seated in a game.
func (r *Registry) InGameCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.players {
		if p.Status() == InGame {
			n++
		}
	}
	return n
}

// RatingDistribution buckets every registered player into a rating band,
// for server-statistics reporting.
func (r *Registry) RatingDistribution() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dist := make(map[string]int)
	for _, p := range r.players {
		dist[RatingBand(p.Stats().Rating)]++
	}
	return dist
}

// FindMatchmakingOpponent returns the best available opponent for playerID
// within tolerance rating points, preferring the closest rating.
func (r *Registry) FindMatchmakingOpponent(playerID string, tolerance uint32) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	if !ok {
		return nil, false
	}
	target := p.Stats().Rating
	min, max := saturatingSub(target, tolerance), target+tolerance

	var best *Player
	var bestDelta uint32
	for _, cand := range r.players {
		if cand.ID() == playerID || !cand.IsOnline() || !cand.IsAvailableForGame() {
			continue
		}
		rating := cand.Stats().Rating
		if rating < min || rating > max {
			continue
		}
		delta := absDiff(rating, target)
		if best == nil || delta < bestDelta || (delta == bestDelta && cand.ID() < best.ID()) {
			best, bestDelta = cand, delta
		}
	}
	return best, best != nil
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// UpdateRatingsAfterGame applies the Elo adjustment to both players
// following a rated game's result, from player1's perspective.
func (r *Registry) UpdateRatingsAfterGame(player1ID, player2ID string, result GameOutcome) error {
	r.mu.RLock()
	p1, ok1 := r.players[player1ID]
	p2, ok2 := r.players[player2ID]
	r.mu.RUnlock()

	if !ok1 {
		return chesserr.New(chesserr.PlayerNotFound, "player %v not found", player1ID)
	}
	if !ok2 {
		return chesserr.New(chesserr.PlayerNotFound, "player %v not found", player2ID)
	}

	change1, change2 := CalculateRatingChange(p1.Stats().Rating, p2.Stats().Rating, result)
	p1.UpdateRating(ApplyRatingChange(p1.Stats().Rating, change1))
	p2.UpdateRating(ApplyRatingChange(p2.Stats().Rating, change2))
	return nil
}
