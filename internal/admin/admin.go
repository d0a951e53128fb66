package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"standings-backend/internal/models"
	"standings-backend/internal/session"
)

var (
	ErrLocked               = errors.New("admin console is locked")
	ErrLastTournament       = errors.New("cannot delete the last tournament")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrTeamNotFound         = errors.New("team not found")
)

// Console mutates the tournaments of one operator-unlocked session. Every
// operation commits through session.Update, so a successful call has
// already been persisted.
type Console struct {
	sess  *session.Session
	now   func() time.Time
	newID func() string
}

func New(s *session.Session) *Console {
	return &Console{
		sess:  s,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// TeamInput is the editable part of a team.
type TeamInput struct {
	Name       string       `json:"name"`
	LeaderName string       `json:"leaderName"`
	Logo       *string      `json:"logo"`
	Players    []string     `json:"players"`
	Stats      models.Stats `json:"stats"`
}

func (c *Console) guard() error {
	if !c.sess.IsOperator() {
		return ErrLocked
	}
	return nil
}

func confirm(confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	return nil
}

func findTournament(tx *session.Tx, id string) (*models.Tournament, error) {
	if id == "" {
		id = tx.Active
	}
	i := models.FindTournament(tx.Tournaments, id)
	if i < 0 {
		return nil, session.ErrUnknownTournament
	}
	return &tx.Tournaments[i], nil
}

// CreateTournament appends a tournament named after the trimmed, uppercased
// input and makes it active.
func (c *Console) CreateTournament(ctx context.Context, name string) (models.Tournament, error) {
	if err := c.guard(); err != nil {
		return models.Tournament{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tournament{}, models.FieldError("name", "is required")
	}

	t := models.Tournament{
		ID:    c.newID(),
		Name:  strings.ToUpper(name),
		Teams: []models.Team{},
	}
	err := c.sess.Update(ctx, func(tx *session.Tx) error {
		tx.Tournaments = append(tx.Tournaments, t)
		tx.Active = t.ID
		return nil
	})
	if err != nil {
		return models.Tournament{}, err
	}
	return t, nil
}

// DeleteTournament removes a tournament. The last remaining tournament is
// never removed, with or without confirmation.
func (c *Console) DeleteTournament(ctx context.Context, id string, confirmed bool) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.sess.Update(ctx, func(tx *session.Tx) error {
		i := models.FindTournament(tx.Tournaments, id)
		if i < 0 {
			return session.ErrUnknownTournament
		}
		if len(tx.Tournaments) <= 1 {
			return ErrLastTournament
		}
		if err := confirm(confirmed); err != nil {
			return err
		}
		tx.Tournaments = append(tx.Tournaments[:i], tx.Tournaments[i+1:]...)
		if tx.Active == id {
			tx.Active = tx.Tournaments[0].ID
		}
		return nil
	})
}

// buildRoster turns draft names into players, reusing existing ids by index.
func (c *Console) buildRoster(names []string, existing []models.Player) ([]models.Player, error) {
	draft := models.NewDraft(nil)
	for _, n := range names {
		if err := draft.Add(n); err != nil {
			return nil, err
		}
	}
	players := make([]models.Player, 0, draft.Len())
	for i, n := range draft.Names() {
		id := c.newID()
		if i < len(existing) {
			id = existing[i].ID
		}
		players = append(players, models.Player{ID: id, Name: n})
	}
	return players, nil
}

func (c *Console) applyInput(team *models.Team, in TeamInput) error {
	players, err := c.buildRoster(in.Players, team.Players)
	if err != nil {
		return err
	}
	team.Name = strings.TrimSpace(in.Name)
	team.LeaderName = strings.TrimSpace(in.LeaderName)
	if team.LeaderName == "" {
		team.LeaderName = models.DefaultLeaderName
	}
	team.Players = players
	team.Stats = in.Stats
	return team.Validate()
}

// CreateTeam appends a team to the tournament. A team created without a
// logo gets a generated placeholder.
func (c *Console) CreateTeam(ctx context.Context, tournamentID string, in TeamInput) (models.Team, error) {
	if err := c.guard(); err != nil {
		return models.Team{}, err
	}

	var created models.Team
	err := c.sess.Update(ctx, func(tx *session.Tx) error {
		t, err := findTournament(tx, tournamentID)
		if err != nil {
			return err
		}
		team := models.Team{ID: c.newID(), Logo: in.Logo}
		if err := c.applyInput(&team, in); err != nil {
			return err
		}
		if team.Logo == nil || *team.Logo == "" {
			logo := models.PlaceholderLogo(c.now().UnixMilli())
			team.Logo = &logo
		}
		t.Teams = append(t.Teams, team)
		created = team.Clone()
		return nil
	})
	return created, err
}

// UpdateTeam replaces a team's editable fields. The logo is taken from the
// input as-is, so a nil logo clears it.
func (c *Console) UpdateTeam(ctx context.Context, tournamentID, teamID string, in TeamInput) (models.Team, error) {
	if err := c.guard(); err != nil {
		return models.Team{}, err
	}

	var updated models.Team
	err := c.sess.Update(ctx, func(tx *session.Tx) error {
		t, err := findTournament(tx, tournamentID)
		if err != nil {
			return err
		}
		i := t.FindTeam(teamID)
		if i < 0 {
			return ErrTeamNotFound
		}
		team := t.Teams[i].Clone()
		team.Logo = in.Logo
		if err := c.applyInput(&team, in); err != nil {
			return err
		}
		t.Teams[i] = team
		updated = team.Clone()
		return nil
	})
	return updated, err
}

func (c *Console) DeleteTeam(ctx context.Context, tournamentID, teamID string, confirmed bool) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.sess.Update(ctx, func(tx *session.Tx) error {
		t, err := findTournament(tx, tournamentID)
		if err != nil {
			return err
		}
		i := t.FindTeam(teamID)
		if i < 0 {
			return ErrTeamNotFound
		}
		if err := confirm(confirmed); err != nil {
			return err
		}
		t.Teams = append(t.Teams[:i], t.Teams[i+1:]...)
		return nil
	})
}

// PurgeTeams empties the tournament's team list.
func (c *Console) PurgeTeams(ctx context.Context, tournamentID string, confirmed bool) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.sess.Update(ctx, func(tx *session.Tx) error {
		t, err := findTournament(tx, tournamentID)
		if err != nil {
			return err
		}
		if err := confirm(confirmed); err != nil {
			return err
		}
		t.Teams = []models.Team{}
		return nil
	})
}

// ResetStats zeroes wins, losses and points for every team. Position and
// roster are kept.
func (c *Console) ResetStats(ctx context.Context, tournamentID string, confirmed bool) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.sess.Update(ctx, func(tx *session.Tx) error {
		t, err := findTournament(tx, tournamentID)
		if err != nil {
			return err
		}
		if err := confirm(confirmed); err != nil {
			return err
		}
		for i := range t.Teams {
			t.Teams[i].Stats.Wins = 0
			t.Teams[i].Stats.Losses = 0
			t.Teams[i].Stats.Points = 0
		}
		return nil
	})
}
