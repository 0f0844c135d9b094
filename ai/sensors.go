package ai

import (
	"snake-term/game"
	"snake-term/game/types"
)

// Observe builds the agent's view of g from the head.
func Observe(g *game.Game) State {
	head := g.Head()

	var dangers [4]bool
	for _, d := range []types.Direction{types.Up, types.Right, types.Down, types.Left} {
		dangers[d] = g.IsDanger(head.Add(d))
	}

	food, ok := g.Food()
	if !ok {
		return NewState([2]int{}, 0, dangers)
	}
	foodDir := [2]int{
		sign(food.Row - head.Row),
		sign(food.Col - head.Col),
	}
	return NewState(foodDir, manhattanDistance(head, food), dangers)
}

func sign(x int) int {
	if x > 0 {
		return 1
	} else if x < 0 {
		return -1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func manhattanDistance(p1, p2 types.Point) int {
	return abs(p2.Row-p1.Row) + abs(p2.Col-p1.Col)
}
