package narrative

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"standings-backend/internal/models"
)

// OfflineMessage is returned whenever the generation service fails or
// produces no text.
const OfflineMessage = "SYSTEM OFFLINE: Connection to Analysis Engine interrupted."

// DefaultSimulationDelay mimics the latency of the real service.
const DefaultSimulationDelay = 1500 * time.Millisecond

const instructions = `You are a professional Esports Analyst and Caster.
Analyze the current tournament standings provided below.

Tournament Data:
%s

Provide a high-energy, exciting summary of the tournament so far.
- Highlight the leading team.
- Mention any potential underdogs.
- Predict which team has the best momentum based on wins/points.
- Keep it under 200 words.
- Use gaming terminology (e.g., "meta", "carry", "clutch", "diff").`

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service produces narratives. Without a generator it runs in simulation
// mode and synthesizes the text locally.
type Service struct {
	gen    Generator
	delay  time.Duration
	logger *zap.Logger
}

func NewService(gen Generator, simulationDelay time.Duration, logger *zap.Logger) *Service {
	return &Service{gen: gen, delay: simulationDelay, logger: logger}
}

// Simulated reports whether the service runs without a generator.
func (s *Service) Simulated() bool { return s.gen == nil }

// Analyze returns a narrative for the given teams. It never fails: errors
// from the generator are logged and replaced by OfflineMessage.
func (s *Service) Analyze(ctx context.Context, teams []models.Team) string {
	if s.gen == nil {
		s.logger.Debug("no narrative credential, running in simulation mode")
		s.wait(ctx)
		return Simulate(teams)
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(teams))
	if err != nil {
		s.logger.Warn("narrative generation failed", zap.Error(err))
		return OfflineMessage
	}
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("narrative generation returned no text")
		return OfflineMessage
	}
	return text
}

func (s *Service) wait(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ByPointsDesc returns the teams sorted by points, highest first. Ties keep
// their list order.
func ByPointsDesc(teams []models.Team) []models.Team {
	sorted := make([]models.Team, len(teams))
	copy(sorted, teams)
	slices.SortStableFunc(sorted, func(a, b models.Team) int {
		return cmp.Compare(b.Stats.Points, a.Stats.Points)
	})
	return sorted
}

// BuildPrompt enumerates each team's rank, points, wins and roster, highest
// points first, inside the caster instructions.
func BuildPrompt(teams []models.Team) string {
	lines := make([]string, 0, len(teams))
	for _, t := range ByPointsDesc(teams) {
		names := make([]string, len(t.Players))
		for i, p := range t.Players {
			names[i] = p.Name
		}
		lines = append(lines, fmt.Sprintf("Rank %d: %s (Points: %d, Wins: %d, Players: %s)",
			t.Stats.Position, t.Name, t.Stats.Points, t.Stats.Wins, strings.Join(names, ", ")))
	}
	return fmt.Sprintf(instructions, strings.Join(lines, "\n"))
}

// Simulate synthesizes a narrative around the team with the most points.
func Simulate(teams []models.Team) string {
	if len(teams) == 0 {
		return "[SIMULATION FEED]\n\nThe lobby is empty. No teams have checked in yet, so the casters are waiting on the first matchups."
	}
	leader := ByPointsDesc(teams)[0]
	return fmt.Sprintf(`[SIMULATION FEED]

UNSTOPPABLE MOMENTUM! %[1]s is absolutely dominating the lobby right now with %[2]d points! %[3]s is calling the shots perfectly, and the team's rotation is flawless.

The rest of the field is scrambling to keep up. Unless we see a massive upset in the next round, this tournament is %[1]s's to lose. The current meta heavily favors their aggressive playstyle. Pure domination!`,
		leader.Name, leader.Stats.Points, leader.LeaderName)
}
