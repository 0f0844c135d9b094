package ai

import (
	"time"

	"snake-term/game"
)

// Learner is a policy the Autopilot can drive and train. Agent is the
// tabular one, DQNAgent the neural one.
type Learner interface {
	GetAction(state State) Action
	Update(state State, action Action, reward float64, next State, terminal bool)
	EndEpisode()
	Exploration() float64
	Save(path string) error
	Load(path string) error
}

type transition struct {
	state  State
	action Action
}

// Autopilot steers a game with an Agent. It answers the first Poll of
// every tick with a direction and hands later polls in the same tick to
// the fallback source, so a player can still pause or quit.
type Autopilot struct {
	agent    Learner
	game     *game.Game
	fallback game.InputSource

	// Patience ends the game with InputQuit after this many steps without
	// food. Zero means no limit.
	Patience int

	decidedAt int
	last      *transition
	lastScore int
	lastMeal  int
	starved   bool
}

func NewAutopilot(agent Learner, g *game.Game, fallback game.InputSource) *Autopilot {
	return &Autopilot{
		agent:     agent,
		game:      g,
		fallback:  fallback,
		decidedAt: -1,
	}
}

// Poll implements game.InputSource.
func (a *Autopilot) Poll(deadline time.Time) game.Input {
	g := a.game
	if g.Steps != a.decidedAt {
		a.decidedAt = g.Steps
		ate := g.Score() > a.lastScore
		if ate {
			a.lastScore = g.Score()
			a.lastMeal = g.Steps
		}
		if a.Patience > 0 && g.Steps-a.lastMeal > a.Patience {
			a.starved = true
			return game.InputQuit
		}
		return game.InputFor(a.decide(ate).Direction())
	}
	if a.fallback != nil {
		return a.fallback.Poll(deadline)
	}
	return game.InputNone
}

func (a *Autopilot) decide(ate bool) Action {
	g := a.game
	state := Observe(g)
	if a.last != nil {
		a.agent.Update(a.last.state, a.last.action, a.reward(ate, state), state, false)
	}

	action := a.agent.GetAction(state)
	if action.Direction() == g.Direction().Opposite() {
		// The mediator would drop a reversal; learn from what really happens.
		action = ActionFor(g.Direction())
	}
	a.last = &transition{state: state, action: action}
	return action
}

func (a *Autopilot) reward(ate bool, next State) float64 {
	if ate {
		return RewardFood
	}
	switch {
	case next.FoodDistance < a.last.state.FoodDistance:
		return RewardCloser
	case next.FoodDistance > a.last.state.FoodDistance:
		return RewardFarther
	}
	return 0
}

// Finish learns from the final move of a session and closes the episode.
// A player quitting teaches nothing; starving counts as a death.
func (a *Autopilot) Finish(res game.Result) {
	if a.last != nil {
		switch {
		case res.Reason == game.ReasonCollision || a.starved:
			a.agent.Update(a.last.state, a.last.action, RewardDeath, State{}, true)
		case res.Reason == game.ReasonBoardFull:
			a.agent.Update(a.last.state, a.last.action, RewardFood, State{}, true)
		}
	}
	a.agent.EndEpisode()
}

// Starved reports whether the autopilot gave up for lack of food.
func (a *Autopilot) Starved() bool {
	return a.starved
}
