package ai

import (
	"fmt"
	"sort"

	"snake-term/game"
	"snake-term/game/types"

	log "github.com/sirupsen/logrus"
)

const reportEvery = 100

// TrainingSummary aggregates the scores of a training run.
type TrainingSummary struct {
	Games        int
	BestScore    int
	AverageScore float64
	MedianScore  float64
	Collisions   int
	Starved      int
	BoardFull    int
}

func (s TrainingSummary) String() string {
	return fmt.Sprintf("%d games: best %d, average %.2f, median %.1f (collisions %d, starved %d, board full %d)",
		s.Games, s.BestScore, s.AverageScore, s.MedianScore, s.Collisions, s.Starved, s.BoardFull)
}

// Train plays episodes headless games with the agent, one seed per game,
// without waiting between ticks.
func Train(cfg types.Config, episodes int, agent Learner) (TrainingSummary, error) {
	var summary TrainingSummary
	scores := make([]int, 0, episodes)

	for episode := 0; episode < episodes; episode++ {
		c := cfg
		c.Seed = cfg.Seed + uint64(episode)
		g, err := game.NewGame(c)
		if err != nil {
			return summary, err
		}

		pilot := NewAutopilot(agent, g, nil)
		pilot.Patience = g.Grid.Area()
		res := game.NewSession(g, pilot, nil).Run()
		pilot.Finish(res)

		scores = append(scores, res.Score)
		switch {
		case pilot.Starved():
			summary.Starved++
		case res.Reason == game.ReasonCollision:
			summary.Collisions++
		case res.Reason == game.ReasonBoardFull:
			summary.BoardFull++
		}

		if (episode+1)%reportEvery == 0 {
			log.WithFields(log.Fields{
				"episode": episode + 1,
				"epsilon": agent.Exploration(),
				"agent":   fmt.Sprintf("%T", agent),
			}).Info(summarize(scores, summary))
		}
	}
	return summarize(scores, summary), nil
}

func summarize(scores []int, summary TrainingSummary) TrainingSummary {
	summary.Games = len(scores)
	if len(scores) == 0 {
		return summary
	}

	sorted := append([]int(nil), scores...)
	sort.Ints(sorted)

	total := 0
	for _, s := range sorted {
		total += s
	}
	summary.BestScore = sorted[len(sorted)-1]
	summary.AverageScore = float64(total) / float64(len(sorted))
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		summary.MedianScore = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		summary.MedianScore = float64(sorted[mid])
	}
	return summary
}
