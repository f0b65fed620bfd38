package player

import "strings"

// SearchCriteria filters players for GetOnlinePlayers/matchmaking queries.
// A nil field means "don't filter on this".
type SearchCriteria struct {
	NameContains      *string
	MinRating         *uint32
	MaxRating         *uint32
	Status            *Status
	AvailableForGame  *bool
	MinGamesPlayed    *uint32
	OnlineOnly        bool
}

// Matches reports whether p satisfies every set criterion.
func (c SearchCriteria) Matches(p *Player) bool {
	if c.NameContains != nil && !strings.Contains(p.Name(), strings.ToLower(*c.NameContains)) {
		return false
	}
	stats := p.Stats()
	if c.MinRating != nil && stats.Rating < *c.MinRating {
		return false
	}
	if c.MaxRating != nil && stats.Rating > *c.MaxRating {
		return false
	}
	if c.Status != nil && p.Status() != *c.Status {
		return false
	}
	if c.AvailableForGame != nil && p.IsAvailableForGame() != *c.AvailableForGame {
		return false
	}
	if c.MinGamesPlayed != nil && stats.GamesPlayed < *c.MinGamesPlayed {
		return false
	}
	if c.OnlineOnly && !p.IsOnline() {
		return false
	}
	return true
}

// OnlineAvailable returns the criteria for "online and not overloaded with
// games".
func OnlineAvailable() SearchCriteria {
	available := true
	return SearchCriteria{OnlineOnly: true, AvailableForGame: &available}
}

// ByRatingRange returns the criteria for a closed rating interval.
func ByRatingRange(min, max uint32) SearchCriteria {
	return SearchCriteria{MinRating: &min, MaxRating: &max}
}

// RatingBand names the coarse skill tier a rating falls into, for
// GetRatingDistribution summaries.
func RatingBand(rating uint32) string {
	switch {
	case rating < 1000:
		return "Beginner (0-999)"
	case rating < 1200:
		return "Novice (1000-1199)"
	case rating < 1400:
		return "Intermediate (1200-1399)"
	case rating < 1600:
		return "Advanced (1400-1599)"
	case rating < 1800:
		return "Expert (1600-1799)"
	case rating < 2000:
		return "Master (1800-1999)"
	case rating < 2200:
		return "Grandmaster (2000-2199)"
	default:
		return "Super Grandmaster (2200+)"
	}
}
