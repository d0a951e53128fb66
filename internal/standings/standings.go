package standings

import (
	"cmp"
	"math"
	"slices"

	"standings-backend/internal/models"
)

// Entry is one row of the leaderboard.
type Entry struct {
	Rank    int         `json:"rank"`
	WinRate int         `json:"winRate"`
	Team    models.Team `json:"team"`
}

// Board is the derived leaderboard for one tournament.
type Board struct {
	TournamentID   string  `json:"tournamentId"`
	TournamentName string  `json:"tournamentName"`
	Leader         *Entry  `json:"leader"`
	Entries        []Entry `json:"entries"`
}

// Sort returns the teams ordered by ascending stats.position. Teams that
// share a position keep their original relative order. The input slice is
// not modified.
func Sort(teams []models.Team) []models.Team {
	sorted := make([]models.Team, len(teams))
	copy(sorted, teams)
	slices.SortStableFunc(sorted, func(a, b models.Team) int {
		return cmp.Compare(a.Stats.Position, b.Stats.Position)
	})
	return sorted
}

// WinRate is wins/(wins+losses) as a whole percentage rounded half away
// from zero, or 0 when no games have been played.
func WinRate(s models.Stats) int {
	games := s.Wins + s.Losses
	if games <= 0 {
		return 0
	}
	return int(math.Round(float64(s.Wins) / float64(games) * 100))
}

// Build derives the leaderboard. The leader is whichever team sorts first
// by position, regardless of points.
func Build(t models.Tournament) Board {
	sorted := Sort(t.Teams)
	b := Board{
		TournamentID:   t.ID,
		TournamentName: t.Name,
		Entries:        make([]Entry, len(sorted)),
	}
	for i, team := range sorted {
		b.Entries[i] = Entry{
			Rank:    i + 1,
			WinRate: WinRate(team.Stats),
			Team:    team.Clone(),
		}
	}
	if len(b.Entries) > 0 {
		leader := b.Entries[0]
		b.Leader = &leader
	}
	return b
}
