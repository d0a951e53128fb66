package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"standings-backend/internal/models"
	"standings-backend/internal/session"
	"standings-backend/internal/store"
)

type fixture struct {
	st      *store.MemoryStore
	sess    *session.Session
	console *Console
}

func setup(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	sess, err := session.Load(context.Background(), st, "sid", "ADMIN", zap.NewNop())
	require.NoError(t, err)
	sess.UnlockOperator()

	c := New(sess)
	n := 0
	c.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return &fixture{st: st, sess: sess, console: c}
}

// reload asserts the round-trip law and returns the persisted list.
func (f *fixture) reload(t *testing.T) []models.Tournament {
	t.Helper()
	again, err := session.Load(context.Background(), f.st, "other", "ADMIN", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, f.sess.Tournaments(), again.Tournaments())
	return again.Tournaments()
}

func TestLockedConsoleRefusesEverything(t *testing.T) {
	f := setup(t)
	f.sess.LockOperator()
	ctx := context.Background()

	_, err := f.console.CreateTournament(ctx, "x")
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, f.console.DeleteTournament(ctx, "t1", true), ErrLocked)
	_, err = f.console.CreateTeam(ctx, "", TeamInput{Name: "x"})
	assert.ErrorIs(t, err, ErrLocked)
	_, err = f.console.UpdateTeam(ctx, "", "1", TeamInput{Name: "x"})
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, f.console.DeleteTeam(ctx, "", "1", true), ErrLocked)
	assert.ErrorIs(t, f.console.PurgeTeams(ctx, "", true), ErrLocked)
	assert.ErrorIs(t, f.console.ResetStats(ctx, "", true), ErrLocked)

	assert.Equal(t, models.DefaultTournaments(), f.sess.Tournaments())
}

func TestCreateTournament(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.console.CreateTournament(ctx, "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	tour, err := f.console.CreateTournament(ctx, "  spring cup ")
	require.NoError(t, err)
	assert.Equal(t, "SPRING CUP", tour.Name)
	assert.Equal(t, "id-1", tour.ID)
	assert.Equal(t, "id-1", f.sess.ActiveID())

	ts := f.reload(t)
	require.Len(t, ts, 2)
	assert.Equal(t, "SPRING CUP", ts[1].Name)
	assert.Empty(t, ts[1].Teams)
}

func TestDeleteLastTournamentRefused(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.console.DeleteTournament(ctx, "t1", true), ErrLastTournament)
	assert.ErrorIs(t, f.console.DeleteTournament(ctx, "t1", false), ErrLastTournament)
	assert.Equal(t, models.DefaultTournaments(), f.sess.Tournaments())

	_, err := f.st.Get(ctx, store.Key("ADMIN"))
	assert.ErrorIs(t, err, store.ErrNotFound, "refused deletion must not write")
}

func TestDeleteTournament(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tour, err := f.console.CreateTournament(ctx, "second")
	require.NoError(t, err)
	require.Equal(t, tour.ID, f.sess.ActiveID())

	assert.ErrorIs(t, f.console.DeleteTournament(ctx, tour.ID, false), ErrConfirmationRequired)
	assert.Len(t, f.sess.Tournaments(), 2)

	assert.ErrorIs(t, f.console.DeleteTournament(ctx, "missing", true), session.ErrUnknownTournament)

	require.NoError(t, f.console.DeleteTournament(ctx, tour.ID, true))
	assert.Equal(t, "t1", f.sess.ActiveID())
	assert.Len(t, f.reload(t), 1)
}

func TestCreateTeamDefaults(t *testing.T) {
	f := setup(t)
	team, err := f.console.CreateTeam(context.Background(), "", TeamInput{
		Name:    " NEW BLOOD ",
		Players: []string{"one", " ", "two"},
		Stats:   models.Stats{Wins: 1, Position: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, "NEW BLOOD", team.Name)
	assert.Equal(t, models.DefaultLeaderName, team.LeaderName)
	require.NotNil(t, team.Logo)
	assert.Equal(t, "https://picsum.photos/200/200?random=1700000000000", *team.Logo)
	assert.Equal(t, []models.Player{{ID: "id-2", Name: "one"}, {ID: "id-3", Name: "two"}}, team.Players)

	ts := f.reload(t)
	assert.Len(t, ts[0].Teams, 4)
	assert.Equal(t, team, ts[0].Teams[3])
}

func TestCreateTeamKeepsSuppliedLogo(t *testing.T) {
	f := setup(t)
	logo := "https://cdn.example/logo.png"
	team, err := f.console.CreateTeam(context.Background(), "t1", TeamInput{Name: "A", LeaderName: "Cap", Logo: &logo})
	require.NoError(t, err)
	assert.Equal(t, logo, *team.Logo)
	assert.Equal(t, "Cap", team.LeaderName)
}

func TestCreateTeamValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.console.CreateTeam(ctx, "", TeamInput{Name: ""})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.console.CreateTeam(ctx, "", TeamInput{Name: "A", Players: []string{"1", "2", "3", "4", "5"}})
	assert.ErrorIs(t, err, models.ErrRosterFull)

	_, err = f.console.CreateTeam(ctx, "", TeamInput{Name: "A", Stats: models.Stats{Losses: -1}})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.console.CreateTeam(ctx, "nope", TeamInput{Name: "A"})
	assert.ErrorIs(t, err, session.ErrUnknownTournament)

	assert.Equal(t, models.DefaultTournaments(), f.sess.Tournaments())
}

func TestUpdateTeam(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	team, err := f.console.UpdateTeam(ctx, "t1", "2", TeamInput{
		Name:       "ROYAL GUARD II",
		LeaderName: "",
		Logo:       nil,
		Players:    []string{"Rook", "Queen", "Pawn", "King"},
		Stats:      models.Stats{Wins: 10, Losses: 4, Points: 30, Position: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "2", team.ID)
	assert.Nil(t, team.Logo, "a nil logo on update clears the stored one")
	assert.Equal(t, models.DefaultLeaderName, team.LeaderName)
	assert.Equal(t, []models.Player{
		{ID: "p3", Name: "Rook"},
		{ID: "p4", Name: "Queen"},
		{ID: "p5", Name: "Pawn"},
		{ID: "id-1", Name: "King"},
	}, team.Players)

	ts := f.reload(t)
	assert.Equal(t, team, ts[0].Teams[1])

	_, err = f.console.UpdateTeam(ctx, "t1", "missing", TeamInput{Name: "x"})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	_, err = f.console.UpdateTeam(ctx, "t1", "1", TeamInput{Name: "x", Players: []string{"a", "b", "c", "d", "e"}})
	assert.ErrorIs(t, err, models.ErrRosterFull)
}

func TestDeleteTeam(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.console.DeleteTeam(ctx, "", "1", false), ErrConfirmationRequired)
	assert.ErrorIs(t, f.console.DeleteTeam(ctx, "", "9", true), ErrTeamNotFound)

	require.NoError(t, f.console.DeleteTeam(ctx, "", "1", true))
	ts := f.reload(t)
	require.Len(t, ts[0].Teams, 2)
	assert.Equal(t, "2", ts[0].Teams[0].ID)
}

func TestPurgeTeams(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.console.PurgeTeams(ctx, "t1", false), ErrConfirmationRequired)
	assert.Len(t, f.sess.Tournaments()[0].Teams, 3)

	require.NoError(t, f.console.PurgeTeams(ctx, "t1", true))
	ts := f.reload(t)
	assert.NotNil(t, ts[0].Teams)
	assert.Empty(t, ts[0].Teams)
}

func TestResetStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.console.ResetStats(ctx, "", false), ErrConfirmationRequired)

	require.NoError(t, f.console.ResetStats(ctx, "", true))
	seed := models.DefaultTournaments()[0]
	for i, team := range f.reload(t)[0].Teams {
		assert.Equal(t, models.Stats{Position: seed.Teams[i].Stats.Position}, team.Stats)
		assert.Equal(t, seed.Teams[i].Players, team.Players)
	}
}
