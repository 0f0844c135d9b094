package game

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Reason says why a session ended.
type Reason int

const (
	ReasonCollision Reason = iota
	ReasonQuit
	ReasonBoardFull
)

func (r Reason) String() string {
	switch r {
	case ReasonCollision:
		return "collision"
	case ReasonQuit:
		return "quit"
	case ReasonBoardFull:
		return "board full"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Result is reported once a session terminates.
type Result struct {
	SessionID string
	Score     int
	Reason    Reason
	Cause     Outcome // OutcomeHitWall or OutcomeHitSelf when Reason is ReasonCollision
	Ticks     int
	Length    int
	Duration  time.Duration
}

func (r Result) String() string {
	if r.Reason == ReasonCollision {
		return fmt.Sprintf("game over (%s): score %d", r.Cause, r.Score)
	}
	if r.Reason == ReasonBoardFull {
		return fmt.Sprintf("board filled, you win: score %d", r.Score)
	}
	return fmt.Sprintf("quit: score %d", r.Score)
}

// Session runs the tick loop for one game. It owns the Game until Run
// returns.
type Session struct {
	game     *Game
	input    InputSource
	renderer Renderer
	paused   bool
}

func NewSession(g *Game, input InputSource, renderer Renderer) *Session {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &Session{
		game:     g,
		input:    input,
		renderer: renderer,
	}
}

// Run loops until a collision, a quit input, or a full board. Each
// iteration waits for input up to the current tick interval, then ticks
// once unless paused.
func (s *Session) Run() Result {
	start := time.Now()
	g := s.game
	log.WithFields(log.Fields{
		"session":  g.UUID,
		"interval": g.Interval(),
	}).Debug("session started")

	s.renderer.Draw(g)
	for {
		deadline := time.Now().Add(g.Interval())
		if quit := s.collect(deadline); quit {
			return s.finish(start, ReasonQuit, OutcomeNone)
		}
		if s.paused {
			continue
		}

		outcome := g.Tick()
		s.renderer.Draw(g)
		log.WithFields(log.Fields{
			"session": g.UUID,
			"step":    g.Steps,
			"outcome": outcome,
			"head":    g.Head(),
		}).Trace("tick")

		if outcome.Collision() {
			return s.finish(start, ReasonCollision, outcome)
		}
		if _, ok := g.Food(); !ok {
			return s.finish(start, ReasonBoardFull, OutcomeNone)
		}
	}
}

// collect drains inputs until the deadline. It reports true on quit.
func (s *Session) collect(deadline time.Time) bool {
	for {
		in := s.input.Poll(deadline)
		if in == InputNone {
			return false
		}
		if s.Handle(in) {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
	}
}

// Handle mediates one input: directions are queued on the game, pause
// toggles the pause flag. It reports whether the input asks to quit.
func (s *Session) Handle(in Input) bool {
	switch in {
	case InputQuit:
		return true
	case InputPause:
		s.SetPaused(!s.paused)
		s.renderer.Draw(s.game)
	default:
		if d, ok := in.Direction(); ok {
			s.game.QueueDirection(d)
		}
	}
	return false
}

func (s *Session) Paused() bool {
	return s.paused
}

// SetPaused pauses or resumes the loop and tells a renderer that
// implements Pauser. Interactive play starts paused so the first tick
// waits for the player.
func (s *Session) SetPaused(paused bool) {
	s.paused = paused
	if p, ok := s.renderer.(Pauser); ok {
		p.SetPaused(paused)
	}
}

func (s *Session) finish(start time.Time, reason Reason, cause Outcome) Result {
	g := s.game
	res := Result{
		SessionID: g.UUID,
		Score:     g.Score(),
		Reason:    reason,
		Cause:     cause,
		Ticks:     g.Steps,
		Length:    g.Len(),
		Duration:  time.Since(start),
	}
	log.WithFields(log.Fields{
		"session": res.SessionID,
		"score":   res.Score,
		"reason":  res.Reason,
		"cause":   res.Cause,
		"ticks":   res.Ticks,
	}).Info("session ended")
	return res
}

type nopRenderer struct{}

func (nopRenderer) Draw(*Game) {}
