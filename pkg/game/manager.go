package game

import (
	"context"
	"sync"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Manager owns the set of live games for a server instance. A game id, once
// issued, is never reused even after the game is dropped from the manager.
type Manager struct {
	mu sync.RWMutex

	ids    idgen.RandomIdSource
	engine *rules.Engine

	games       map[string]*GameState
	playerGames map[string]map[string]struct{} // player id -> set of game ids
}

// NewManager returns an empty game manager.
func NewManager(ids idgen.RandomIdSource, engine *rules.Engine) *Manager {
	return &Manager{
		ids:         ids,
		engine:      engine,
		games:       make(map[string]*GameState),
		playerGames: make(map[string]map[string]struct{}),
	}
}

// CreateGame starts a new game on the standard starting position and
// returns its id.
func (m *Manager) CreateGame(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := New(m.ids, m.engine)
	m.games[g.id] = g

	logw.Infof(ctx, "created game %v", g.id)
	return g.id
}

// JoinGame seats playerID in game gameID, tracking the game in the player's
// index of active games.
func (m *Manager) JoinGame(gameID, playerID string, colorPref lang.Optional[board.Color]) (board.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return 0, chesserr.New(chesserr.GameNotFound, "game %v not found", gameID)
	}

	color, err := g.AddPlayer(playerID, colorPref)
	if err != nil {
		return 0, err
	}

	set, ok := m.playerGames[playerID]
	if !ok {
		set = make(map[string]struct{})
		m.playerGames[playerID] = set
	}
	set[gameID] = struct{}{}

	return color, nil
}

// LeaveGame vacates playerID's seat in gameID and removes it from the
// player's active-game index.
func (m *Manager) LeaveGame(gameID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return chesserr.New(chesserr.GameNotFound, "game %v not found", gameID)
	}
	g.RemovePlayer(playerID)

	if set, ok := m.playerGames[playerID]; ok {
		delete(set, gameID)
		if len(set) == 0 {
			delete(m.playerGames, playerID)
		}
	}
	return nil
}

// GetGame returns the game for gameID.
func (m *Manager) GetGame(gameID string) (*GameState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.games[gameID]
	return g, ok
}

// GetPlayerGames returns the games playerID is currently seated in.
func (m *Manager) GetPlayerGames(playerID string) []*GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.playerGames[playerID]
	if !ok {
		return nil
	}
	out := make([]*GameState, 0, len(set))
	for id := range set {
		if g, ok := m.games[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// ListGames returns every game currently tracked by the manager, including
// finished ones not yet reaped.
func (m *Manager) ListGames() []*GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*GameState, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	return out
}

// RemoveGame drops gameID from the manager entirely. Its id is never
// reissued.
func (m *Manager) RemoveGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.games, gameID)
	for player, set := range m.playerGames {
		delete(set, gameID)
		if len(set) == 0 {
			delete(m.playerGames, player)
		}
	}
}

// Count returns the number of games currently tracked.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.games)
}
