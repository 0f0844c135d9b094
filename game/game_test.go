package game

import (
	"errors"
	"testing"
	"time"

	"snake-term/game/entity"
	"snake-term/game/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(rows, cols int) types.Config {
	return types.Config{
		Rows:            rows,
		Cols:            cols,
		InitialInterval: 160 * time.Millisecond,
		MinInterval:     60 * time.Millisecond,
		SpeedDecay:      0.95,
		Seed:            42,
	}
}

func newTestGame(t *testing.T, rows, cols int) *Game {
	t.Helper()
	g, err := NewGame(testConfig(rows, cols))
	require.NoError(t, err)
	return g
}

// place puts the snake and food exactly where a test needs them.
func place(g *Game, food *types.Point, body ...types.Point) {
	g.snake = entity.NewSnake(body...)
	if food == nil {
		g.hasFood = false
		return
	}
	g.food, g.hasFood = *food, true
}

func TestNewGameSpawn(t *testing.T) {
	g := newTestGame(t, 10, 20)

	assert.Equal(t, Running, g.Status())
	assert.Equal(t, types.Right, g.Direction())
	assert.Equal(t, types.Right, g.Pending())
	assert.Equal(t, 0, g.Score())
	assert.Equal(t, 160*time.Millisecond, g.Interval())
	assert.Equal(t, []types.Point{{Row: 5, Col: 10}, {Row: 5, Col: 9}, {Row: 5, Col: 8}}, g.Body())
	assert.NotEmpty(t, g.UUID)

	food, ok := g.Food()
	require.True(t, ok)
	assert.True(t, g.Grid.Contains(food))
	assert.False(t, g.Occupied(food))
}

func TestNewGameTooSmall(t *testing.T) {
	for _, tc := range []struct{ rows, cols int }{
		{types.MinRows - 1, 20},
		{10, types.MinCols - 1},
		{0, 0},
	} {
		_, err := NewGame(testConfig(tc.rows, tc.cols))
		var sizeErr *types.SizeError
		require.True(t, errors.As(err, &sizeErr), "rows=%d cols=%d", tc.rows, tc.cols)
		assert.Equal(t, tc.rows, sizeErr.Rows)
		assert.Equal(t, tc.cols, sizeErr.Cols)
	}

	g, err := NewGame(testConfig(types.MinRows, types.MinCols))
	require.NoError(t, err)
	assert.Equal(t, types.InitialLength, g.Len())
}

func TestNewGameInvalidSpeed(t *testing.T) {
	cfg := testConfig(10, 20)
	cfg.SpeedDecay = 1.2
	_, err := NewGame(cfg)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestWallCollisionScenario(t *testing.T) {
	g := newTestGame(t, 10, 20)
	place(g, nil, types.Point{Row: 5, Col: 10}, types.Point{Row: 5, Col: 9}, types.Point{Row: 5, Col: 8})

	for i := 0; i < 9; i++ {
		require.Equal(t, OutcomeMoved, g.Tick(), "move %d", i+1)
	}
	assert.Equal(t, types.Point{Row: 5, Col: 19}, g.Head())

	assert.Equal(t, OutcomeHitWall, g.Tick())
	assert.Equal(t, Collided, g.Status())
	assert.Equal(t, types.Point{Row: 5, Col: 19}, g.Head(), "snake must not move on collision")
	assert.Equal(t, 3, g.Len())

	// Further ticks are inert.
	assert.Equal(t, OutcomeHitWall, g.Tick())
	assert.Equal(t, 10, g.Steps)
}

func TestReversalIsIgnored(t *testing.T) {
	g := newTestGame(t, 10, 20)
	place(g, nil, types.Point{Row: 5, Col: 10}, types.Point{Row: 5, Col: 9}, types.Point{Row: 5, Col: 8})

	assert.False(t, g.QueueDirection(types.Left))
	assert.Equal(t, types.Right, g.Pending())

	require.Equal(t, OutcomeMoved, g.Tick())
	assert.Equal(t, types.Point{Row: 5, Col: 11}, g.Head())
	assert.Equal(t, types.Right, g.Direction())
}

func TestReversalGuardUsesCommittedDirection(t *testing.T) {
	g := newTestGame(t, 10, 20)
	place(g, nil, types.Point{Row: 5, Col: 10}, types.Point{Row: 5, Col: 9}, types.Point{Row: 5, Col: 8})

	// Up then Left before a tick: Left is checked against the committed
	// Right, not the pending Up, so it is rejected.
	require.True(t, g.QueueDirection(types.Up))
	assert.False(t, g.QueueDirection(types.Left))
	assert.Equal(t, types.Up, g.Pending())

	// Down then Up: the last accepted one wins.
	require.True(t, g.QueueDirection(types.Down))
	require.True(t, g.QueueDirection(types.Up))
	g.Tick()
	assert.Equal(t, types.Point{Row: 4, Col: 10}, g.Head())
}

func TestEatingGrowsAndSpeedsUp(t *testing.T) {
	g := newTestGame(t, 10, 20)
	food := types.Point{Row: 5, Col: 11}
	place(g, &food, types.Point{Row: 5, Col: 10}, types.Point{Row: 5, Col: 9}, types.Point{Row: 5, Col: 8})

	assert.Equal(t, OutcomeAte, g.Tick())
	assert.Equal(t, 1, g.Score())
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, types.Point{Row: 5, Col: 8}, g.Body()[3], "tail stays on growth")
	assert.Equal(t, 152*time.Millisecond, g.Interval())

	next, ok := g.Food()
	require.True(t, ok)
	assert.False(t, g.Occupied(next))
	assert.Equal(t, Move{Outcome: OutcomeAte, Head: food}, g.LastMove())
}

func TestOrdinaryMoveKeepsLength(t *testing.T) {
	g := newTestGame(t, 10, 20)
	food := types.Point{Row: 0, Col: 0}
	place(g, &food, types.Point{Row: 5, Col: 10}, types.Point{Row: 5, Col: 9}, types.Point{Row: 5, Col: 8})

	assert.Equal(t, OutcomeMoved, g.Tick())
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 0, g.Score())
	assert.Equal(t, 160*time.Millisecond, g.Interval())
	assert.Equal(t, Move{Outcome: OutcomeMoved, Head: types.Point{Row: 5, Col: 11}, Vacated: types.Point{Row: 5, Col: 8}}, g.LastMove())
	assert.False(t, g.Occupied(types.Point{Row: 5, Col: 8}))
}

func TestSelfCollision(t *testing.T) {
	g := newTestGame(t, 10, 20)
	// A hook shape: turning down runs the head into its own body.
	place(g, nil,
		types.Point{Row: 4, Col: 5},
		types.Point{Row: 4, Col: 4},
		types.Point{Row: 5, Col: 4},
		types.Point{Row: 5, Col: 5},
		types.Point{Row: 5, Col: 6},
	)

	require.True(t, g.QueueDirection(types.Down))
	assert.Equal(t, OutcomeHitSelf, g.Tick())
	assert.Equal(t, Collided, g.Status())
	assert.Equal(t, 5, g.Len())
}

func TestMovingIntoTailIsCollision(t *testing.T) {
	g := newTestGame(t, 10, 20)
	// 2x2 loop travelling up; turning left puts the head on the tail cell,
	// which is still occupied when the check runs.
	place(g, nil,
		types.Point{Row: 4, Col: 5},
		types.Point{Row: 5, Col: 5},
		types.Point{Row: 5, Col: 4},
		types.Point{Row: 4, Col: 4},
	)
	g.direction = types.Up
	g.pending = types.Up

	require.True(t, g.QueueDirection(types.Left))
	assert.Equal(t, OutcomeHitSelf, g.Tick())
}

func TestLastFreeCellEmptiesFood(t *testing.T) {
	g := newTestGame(t, types.MinRows, types.MinCols)

	// Snake snakes through every cell but (0,0); head at (0,1) facing left.
	var body []types.Point
	body = append(body, types.Point{Row: 0, Col: 1})
	for col := 2; col < types.MinCols; col++ {
		body = append(body, types.Point{Row: 0, Col: col})
	}
	for row := 1; row < types.MinRows; row++ {
		if row%2 == 1 {
			for col := types.MinCols - 1; col >= 0; col-- {
				body = append(body, types.Point{Row: row, Col: col})
			}
		} else {
			for col := 0; col < types.MinCols; col++ {
				body = append(body, types.Point{Row: row, Col: col})
			}
		}
	}
	require.Len(t, body, g.Grid.Area()-1)

	placed, ok := g.foodMgr.Place(entity.NewSnake(body...))
	require.True(t, ok)
	require.Equal(t, types.Point{Row: 0, Col: 0}, placed)

	place(g, &placed, body...)
	g.direction, g.pending = types.Left, types.Left

	assert.Equal(t, OutcomeAte, g.Tick())
	_, ok = g.Food()
	assert.False(t, ok)
	assert.True(t, g.BoardFull())

	// Every neighbour is wall or body now.
	assert.True(t, g.Tick().Collision())
}

func TestAbsentFoodNeverMatches(t *testing.T) {
	g := newTestGame(t, 10, 20)
	place(g, nil, types.Point{Row: 0, Col: 1}, types.Point{Row: 0, Col: 2}, types.Point{Row: 0, Col: 3})
	g.direction, g.pending = types.Left, types.Left

	// The zero Point is (0,0); with no food it must not count as eaten.
	assert.Equal(t, OutcomeMoved, g.Tick())
	assert.Equal(t, 0, g.Score())
}

func TestRandomPlayInvariants(t *testing.T) {
	g := newTestGame(t, 8, 8)
	dirs := []types.Direction{types.Up, types.Right, types.Down, types.Left}

	for step := 0; g.Status() == Running && step < 2000; step++ {
		prevLen, prevScore, prevInterval := g.Len(), g.Score(), g.Interval()
		g.QueueDirection(dirs[(step*7/3)%4])

		outcome := g.Tick()
		switch outcome {
		case OutcomeMoved:
			assert.Equal(t, prevLen, g.Len())
			assert.Equal(t, prevScore, g.Score())
			assert.Equal(t, prevInterval, g.Interval())
		case OutcomeAte:
			assert.Equal(t, prevLen+1, g.Len())
			assert.Equal(t, prevScore+1, g.Score())
			assert.LessOrEqual(t, g.Interval(), prevInterval)
		case OutcomeHitWall, OutcomeHitSelf:
			assert.Equal(t, prevLen, g.Len())
			assert.Equal(t, Collided, g.Status())
		default:
			t.Fatalf("unexpected outcome %v", outcome)
		}

		seen := make(map[types.Point]bool)
		for _, p := range g.Body() {
			require.True(t, g.Grid.Contains(p), "segment %v out of bounds", p)
			require.False(t, seen[p], "duplicate segment %v", p)
			seen[p] = true
		}
		if food, ok := g.Food(); ok {
			assert.False(t, seen[food], "food on snake at %v", food)
		}
	}
}
