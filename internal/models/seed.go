package models

import "fmt"

// PlaceholderLogo returns the generated image reference used for teams
// created without a logo.
func PlaceholderLogo(seed int64) string {
	return fmt.Sprintf("https://picsum.photos/200/200?random=%d", seed)
}

func logo(seed int64) *string {
	s := PlaceholderLogo(seed)
	return &s
}

// DefaultTournaments returns a fresh copy of the dataset a new identity
// starts with.
func DefaultTournaments() []Tournament {
	return []Tournament{
		{
			ID:   "t1",
			Name: "CHAMPIONSHIP SERIES 2025",
			Teams: []Team{
				{
					ID:         "1",
					Name:       "IMPERIAL ESPORTS",
					LeaderName: "Emperor",
					Logo:       logo(1),
					Players:    []Player{{ID: "p1", Name: "Ace"}, {ID: "p2", Name: "King"}},
					Stats:      Stats{Wins: 12, Losses: 1, Points: 36, Position: 1},
				},
				{
					ID:         "2",
					Name:       "ROYAL GUARD",
					LeaderName: "Knight",
					Logo:       logo(2),
					Players:    []Player{{ID: "p3", Name: "Rook"}, {ID: "p4", Name: "Bishop"}, {ID: "p5", Name: "Pawn"}},
					Stats:      Stats{Wins: 9, Losses: 4, Points: 27, Position: 2},
				},
				{
					ID:         "3",
					Name:       "PHANTOM SYNDICATE",
					LeaderName: "Ghost",
					Logo:       logo(3),
					Players:    []Player{{ID: "p6", Name: "Shadow"}, {ID: "p7", Name: "Wraith"}},
					Stats:      Stats{Wins: 6, Losses: 7, Points: 18, Position: 3},
				},
			},
		},
	}
}
