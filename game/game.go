package game

import (
	"fmt"
	"time"

	"snake-term/game/entity"
	"snake-term/game/manager"
	"snake-term/game/types"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// Status is the engine state. A game starts Running and moves to Collided
// exactly once.
type Status int

const (
	Running Status = iota
	Collided
)

func (s Status) String() string {
	if s == Collided {
		return "collided"
	}
	return "running"
}

// Outcome is what a single tick did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeMoved
	OutcomeAte
	OutcomeHitWall
	OutcomeHitSelf
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeAte:
		return "ate"
	case OutcomeHitWall:
		return "hit wall"
	case OutcomeHitSelf:
		return "hit self"
	default:
		return "none"
	}
}

// Collision reports whether the outcome ended the game.
func (o Outcome) Collision() bool {
	return o == OutcomeHitWall || o == OutcomeHitSelf
}

// Move describes the cells a tick changed, for renderers that draw diffs.
type Move struct {
	Outcome Outcome
	Head    types.Point // new head, zero unless the snake moved
	Vacated types.Point // cell freed by the tail, only set for OutcomeMoved
}

// Game is the whole mutable state of one session. It is owned by a single
// goroutine and is not safe for concurrent use.
type Game struct {
	UUID  string
	Grid  types.Grid
	Steps int

	snake     *entity.Snake
	food      types.Point
	hasFood   bool
	direction types.Direction
	pending   types.Direction
	score     int
	status    Status
	last      Move

	collisionMgr *manager.CollisionManager
	foodMgr      *manager.FoodManager
	speedMgr     *manager.SpeedManager
}

// NewGame validates cfg and spawns a 3-segment snake centred on the grid,
// facing right, with one food item placed.
func NewGame(cfg types.Config) (*Game, error) {
	grid, err := types.NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	head := types.Point{Row: grid.Rows / 2, Col: grid.Cols / 2}
	g := &Game{
		UUID:         uuid.New().String(),
		Grid:         grid,
		snake:        entity.Spawn(head, types.InitialLength),
		direction:    types.Right,
		pending:      types.Right,
		status:       Running,
		collisionMgr: manager.NewCollisionManager(grid),
		foodMgr:      manager.NewFoodManager(grid, rand.New(rand.NewSource(cfg.Seed))),
		speedMgr:     manager.NewSpeedManager(cfg.InitialInterval, cfg.MinInterval, cfg.SpeedDecay),
	}
	g.food, g.hasFood = g.foodMgr.Place(g.snake)

	log.WithFields(log.Fields{
		"session": g.UUID,
		"rows":    grid.Rows,
		"cols":    grid.Cols,
		"seed":    cfg.Seed,
	}).Debug("game created")
	return g, nil
}

// QueueDirection records d as the direction for the next tick unless it
// would reverse the snake onto its neck. Only the latest accepted call
// before a tick has any effect.
func (g *Game) QueueDirection(d types.Direction) bool {
	if d == g.direction.Opposite() {
		return false
	}
	g.pending = d
	return true
}

// Tick advances the snake one cell. It is the only state-changing
// operation; on a collided game it does nothing and returns the collision.
func (g *Game) Tick() Outcome {
	if g.status == Collided {
		return g.last.Outcome
	}
	g.Steps++
	g.direction = g.pending

	newHead := g.snake.Head().Add(g.direction)
	switch g.collisionMgr.Check(newHead, g.snake) {
	case manager.WallCollision:
		return g.collide(OutcomeHitWall)
	case manager.SelfCollision:
		return g.collide(OutcomeHitSelf)
	}

	g.snake.PushHead(newHead)

	if g.hasFood && newHead == g.food {
		g.score++
		g.food, g.hasFood = g.foodMgr.Place(g.snake)
		interval := g.speedMgr.Tighten()
		g.last = Move{Outcome: OutcomeAte, Head: newHead}
		log.WithFields(log.Fields{
			"session":  g.UUID,
			"score":    g.score,
			"interval": interval,
			"food":     g.hasFood,
		}).Debug("food eaten")
		return OutcomeAte
	}

	vacated := g.snake.PopTail()
	g.last = Move{Outcome: OutcomeMoved, Head: newHead, Vacated: vacated}
	return OutcomeMoved
}

func (g *Game) collide(o Outcome) Outcome {
	g.status = Collided
	g.last = Move{Outcome: o}
	log.WithFields(log.Fields{
		"session": g.UUID,
		"score":   g.score,
		"step":    g.Steps,
		"cause":   o,
	}).Debug("collision")
	return o
}

func (g *Game) Status() Status {
	return g.status
}

func (g *Game) Score() int {
	return g.score
}

// Interval is the current wait between ticks.
func (g *Game) Interval() time.Duration {
	return g.speedMgr.Interval()
}

// Food returns the food cell; ok is false when the board is full.
func (g *Game) Food() (p types.Point, ok bool) {
	return g.food, g.hasFood
}

// BoardFull reports that the snake covers every cell.
func (g *Game) BoardFull() bool {
	return g.snake.Len() == g.Grid.Area()
}

func (g *Game) Direction() types.Direction {
	return g.direction
}

func (g *Game) Pending() types.Direction {
	return g.pending
}

func (g *Game) Head() types.Point {
	return g.snake.Head()
}

func (g *Game) Len() int {
	return g.snake.Len()
}

// Body returns the snake head first.
func (g *Game) Body() []types.Point {
	return g.snake.Body()
}

// Occupied reports whether a snake segment sits on p.
func (g *Game) Occupied(p types.Point) bool {
	return g.snake.Occupies(p)
}

// IsDanger reports whether moving the head onto p would end the game.
func (g *Game) IsDanger(p types.Point) bool {
	return g.collisionMgr.Check(p, g.snake) != manager.NoCollision
}

// LastMove describes the most recent tick.
func (g *Game) LastMove() Move {
	return g.last
}

func (g *Game) String() string {
	return fmt.Sprintf("game %s: %s score=%d len=%d dir=%s", g.UUID, g.status, g.score, g.snake.Len(), g.direction)
}
