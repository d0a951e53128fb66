package models

import (
	"errors"
	"fmt"
	"strings"
)

// MaxRosterSize is the largest number of players a team may carry.
const MaxRosterSize = 4

// DefaultLeaderName is used when a team is saved without a captain.
const DefaultLeaderName = "Unknown"

var (
	ErrValidation = errors.New("validation failed")
	ErrRosterFull = fmt.Errorf("roster is limited to %d players", MaxRosterSize)
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Stats holds the operator-entered record for a team. Position is the
// operator's manual ranking and is never derived from Points.
type Stats struct {
	Wins     int `json:"wins"`
	Losses   int `json:"losses"`
	Points   int `json:"points"`
	Position int `json:"position"`
}

type Team struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	LeaderName string   `json:"leaderName"`
	Logo       *string  `json:"logo"` // URL, nil when absent
	Players    []Player `json:"players"`
	Stats      Stats    `json:"stats"`
}

type Tournament struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Teams []Team `json:"teams"`
}

// FieldError reports a single invalid input field.
func FieldError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// Validate checks the invariants a team must satisfy before it is saved.
func (t *Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return FieldError("name", "is required")
	}
	if len(t.Players) > MaxRosterSize {
		return ErrRosterFull
	}
	if t.Stats.Wins < 0 {
		return FieldError("wins", "must not be negative")
	}
	if t.Stats.Losses < 0 {
		return FieldError("losses", "must not be negative")
	}
	return nil
}

// Clone returns a deep copy of the team.
func (t Team) Clone() Team {
	c := t
	if t.Logo != nil {
		logo := *t.Logo
		c.Logo = &logo
	}
	c.Players = make([]Player, len(t.Players))
	copy(c.Players, t.Players)
	return c
}

// Clone returns a deep copy of the tournament.
func (t Tournament) Clone() Tournament {
	c := t
	c.Teams = make([]Team, len(t.Teams))
	for i, team := range t.Teams {
		c.Teams[i] = team.Clone()
	}
	return c
}

// CloneAll deep-copies a tournament list.
func CloneAll(ts []Tournament) []Tournament {
	out := make([]Tournament, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// Normalize replaces nil slices with empty ones so that an encoded list
// always round-trips to an equal value.
func Normalize(ts []Tournament) []Tournament {
	if ts == nil {
		ts = []Tournament{}
	}
	for i := range ts {
		if ts[i].Teams == nil {
			ts[i].Teams = []Team{}
		}
		for j := range ts[i].Teams {
			if ts[i].Teams[j].Players == nil {
				ts[i].Teams[j].Players = []Player{}
			}
		}
	}
	return ts
}

// FindTournament returns the index of the tournament with the given id, or -1.
func FindTournament(ts []Tournament, id string) int {
	for i := range ts {
		if ts[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTeam returns the index of the team with the given id, or -1.
func (t *Tournament) FindTeam(id string) int {
	for i := range t.Teams {
		if t.Teams[i].ID == id {
			return i
		}
	}
	return -1
}
