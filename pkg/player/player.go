// Package player implements player identity, stats, Elo rating, and the
// registry that indexes players by id and by sanitized display name.
package player

import (
	"strings"
	"sync"
	"time"

	"github.com/seekerror/chessd/pkg/chesserr"
)

// Status is a player's coarse online state.
type Status uint8

const (
	Online Status = iota
	Away
	InGame
	Offline
)

func (s Status) String() string {
	switch s {
	case Online:
		return "online"
	case Away:
		return "away"
	case InGame:
		return "in_game"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// maxConcurrentGames bounds how many games a player may be seated in at
// once, independent of how many are actually playable simultaneously.
const maxConcurrentGames = 10

// maxAvailableGames bounds how many games a player may be seated in while
// still counting as available for new matchmaking.
const maxAvailableGames = 5

// TimeControl names a clock configuration a player prefers for new games.
type TimeControl struct {
	InitialTimeSecs uint32
	IncrementSecs   uint32
	Name            string
}

// Preferences are client-controlled display/behavior settings, round-tripped
// through UpdatePreferences.
type Preferences struct {
	AutoAcceptDraws     bool
	ShowCoordinates     bool
	PieceStyle          string
	BoardStyle          string
	SoundEnabled        bool
	MoveConfirmation    bool
	PreferredControl    *TimeControl
	AutoPromoteToQueen  bool
}

// DefaultPreferences mirrors the defaults new players start with.
func DefaultPreferences() Preferences {
	return Preferences{
		ShowCoordinates:    true,
		PieceStyle:         "classic",
		BoardStyle:         "wood",
		SoundEnabled:       true,
		AutoPromoteToQueen: true,
	}
}

// ConnectionInfo tracks the transport-level metadata for a player's active
// connection. Reset to nil on disconnect.
type ConnectionInfo struct {
	IPAddress       string
	UserAgent       string
	ConnectedAt     time.Time
	LastHeartbeat   time.Time
	BytesSent       uint64
	BytesReceived   uint64
	MessagesSent    uint32
	MessagesRcvd    uint32
}

// Player is a registered identity: a stable id, a unique sanitized display
// name, online status, stats, current games and preferences. All mutating
// methods are safe for concurrent use.
type Player struct {
	mu sync.Mutex

	id     string
	name   string
	status Status

	stats Stats

	createdAt   time.Time
	lastSeen    time.Time
	lastGameAt  time.Time
	hasPlayed   bool

	currentGames []string
	preferences  Preferences
	conn         *ConnectionInfo
}

// New constructs a player with a sanitized, validated name. Returns
// chesserr.InvalidPlayerName if name sanitizes to empty.
func New(id, name string) (*Player, error) {
	sanitized := SanitizeName(name)
	if sanitized == "" {
		return nil, chesserr.New(chesserr.InvalidPlayerName, "invalid player name: %q", name)
	}
	now := time.Now()
	return &Player{
		id:          id,
		name:        sanitized,
		status:      Online,
		stats:       NewStats(),
		createdAt:   now,
		lastSeen:    now,
		preferences: DefaultPreferences(),
	}, nil
}

// SanitizeName lowercases, trims, and collapses a display name to its
// registry key form: letters, digits, underscore and hyphen only.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r - 'A' + 'a')
		}
	}
	return sb.String()
}

func (p *Player) ID() string   { return p.id }
func (p *Player) Name() string { return p.name }

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Player) SetStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
	p.lastSeen = time.Now()
}

func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// SetConnectionInfo attaches transport metadata for a freshly established
// connection.
func (p *Player) SetConnectionInfo(ip, userAgent string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.conn = &ConnectionInfo{IPAddress: ip, UserAgent: userAgent, ConnectedAt: now, LastHeartbeat: now}
	p.lastSeen = now
}

// UpdateHeartbeat marks the player and its connection (if any) as just seen.
func (p *Player) UpdateHeartbeat() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.lastSeen = now
	if p.conn != nil {
		p.conn.LastHeartbeat = now
	}
}

// Disconnect clears connection metadata and marks the player offline.
func (p *Player) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = Offline
	p.conn = nil
	p.lastSeen = time.Now()
}

// AddGame seats the player in gameID, capped at maxConcurrentGames.
func (p *Player) AddGame(gameID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range p.currentGames {
		if id == gameID {
			return nil
		}
	}
	if len(p.currentGames) >= maxConcurrentGames {
		return chesserr.New(chesserr.TooManyGames, "player %v already has %d concurrent games", p.id, maxConcurrentGames)
	}
	p.currentGames = append(p.currentGames, gameID)
	p.status = InGame
	return nil
}

// RemoveGame vacates gameID from the player's active-game list.
func (p *Player) RemoveGame(gameID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.currentGames[:0]
	for _, id := range p.currentGames {
		if id != gameID {
			out = append(out, id)
		}
	}
	p.currentGames = out
	p.lastGameAt = time.Now()
	p.hasPlayed = true

	if len(p.currentGames) == 0 && p.status == InGame {
		p.status = Online
	}
}

// IsInGame reports whether the player is currently seated in gameID.
func (p *Player) IsInGame(gameID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.currentGames {
		if id == gameID {
			return true
		}
	}
	return false
}

// CurrentGames returns a copy of the player's active game ids.
func (p *Player) CurrentGames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.currentGames))
	copy(out, p.currentGames)
	return out
}

// IsAvailableForGame reports whether the player can be matched into a new
// game: online or away, and under the simultaneous-game cap.
func (p *Player) IsAvailableForGame() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return (p.status == Online || p.status == Away) && len(p.currentGames) < maxAvailableGames
}

// IsOnline reports whether the player is anything other than Offline.
func (p *Player) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status != Offline
}

// IsIdle reports whether the player has been unseen for longer than
// threshold.
func (p *Player) IsIdle(threshold time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.lastSeen) > threshold
}

// UpdatePreferences replaces the player's preferences wholesale.
func (p *Player) UpdatePreferences(prefs Preferences) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preferences = prefs
	p.lastSeen = time.Now()
}

func (p *Player) Preferences() Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preferences
}

// DisplayInfo is the subset of a player's state shown to other clients
// (GetOnlinePlayers, opponent info in game notifications).
type DisplayInfo struct {
	ID               string
	Name             string
	Status           Status
	Rating           uint32
	GamesPlayed      uint32
	WinRate          float64
	IsOnline         bool
	CurrentGameCount int
}

// GetDisplayInfo returns the public-facing snapshot of the player.
func (p *Player) GetDisplayInfo() DisplayInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return DisplayInfo{
		ID:               p.id,
		Name:             p.name,
		Status:           p.status,
		Rating:           p.stats.Rating,
		GamesPlayed:      p.stats.GamesPlayed,
		WinRate:          p.stats.WinRate(),
		IsOnline:         p.status != Offline,
		CurrentGameCount: len(p.currentGames),
	}
}

// updateStats records the outcome of a completed game. Caller must hold
// p.mu indirectly via the exported wrapper.
func (p *Player) updateStats(won, lost, drawn bool, moves uint32, duration time.Duration) {
	p.stats.update(won, lost, drawn, moves, duration)
}

// UpdateStats records the outcome of a completed game against this player.
func (p *Player) UpdateStats(won, lost, drawn bool, moves uint32, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateStats(won, lost, drawn, moves, duration)
}

// UpdateRating overwrites the player's rating, tracking the peak.
func (p *Player) UpdateRating(rating uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.updateRating(rating)
}
