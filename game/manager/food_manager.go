package manager

import (
	"snake-term/game/entity"
	"snake-term/game/types"

	"golang.org/x/exp/rand"
)

type FoodManager struct {
	grid types.Grid
	rng  *rand.Rand
}

func NewFoodManager(grid types.Grid, rng *rand.Rand) *FoodManager {
	return &FoodManager{
		grid: grid,
		rng:  rng,
	}
}

// Place picks a free cell uniformly at random. The second result is false
// when the snake covers the whole grid.
func (fm *FoodManager) Place(snake *entity.Snake) (types.Point, bool) {
	free := fm.FreeCells(snake)
	if len(free) == 0 {
		return types.Point{}, false
	}
	return free[fm.rng.Intn(len(free))], true
}

// FreeCells lists the cells not covered by the snake, row-major.
func (fm *FoodManager) FreeCells(snake *entity.Snake) []types.Point {
	free := make([]types.Point, 0, fm.grid.Area()-snake.Len())
	for _, cell := range fm.grid.Cells() {
		if !snake.Occupies(cell) {
			free = append(free, cell)
		}
	}
	return free
}
