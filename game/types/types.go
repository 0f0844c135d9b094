package types

import (
	"errors"
	"fmt"
	"time"
)

// Point is a cell on the grid. Row grows downward, Col grows rightward.
type Point struct {
	Row int
	Col int
}

// Add returns p translated one cell in direction d.
func (p Point) Add(d Direction) Point {
	delta := d.Delta()
	return Point{Row: p.Row + delta.Row, Col: p.Col + delta.Col}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Direction is one of the four cardinal unit moves.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Delta converts a Direction into its unit displacement vector.
func (d Direction) Delta() Point {
	switch d {
	case Up:
		return Point{Row: -1, Col: 0}
	case Right:
		return Point{Row: 0, Col: 1}
	case Down:
		return Point{Row: 1, Col: 0}
	case Left:
		return Point{Row: 0, Col: -1}
	default:
		return Point{}
	}
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	default:
		return d
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Game constants
const (
	InitialLength = 3                 // Segments at spawn
	MinRows       = 3                 // Smallest playable height
	MinCols       = InitialLength + 2 // Spawned snake plus a free cell ahead and one for food

	DefaultRows            = 20
	DefaultCols            = 20
	DefaultInitialInterval = 160 * time.Millisecond
	DefaultMinInterval     = 60 * time.Millisecond
	DefaultSpeedDecay      = 0.95

	// IntervalResolution is the granularity tick intervals are rounded to.
	IntervalResolution = time.Millisecond
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// SizeError reports a grid too small to host the spawned snake and food.
type SizeError struct {
	Rows    int
	Cols    int
	MinRows int
	MinCols int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("grid %dx%d is too small: need at least %dx%d", e.Rows, e.Cols, e.MinRows, e.MinCols)
}

// Grid is the playable interior of the board, border excluded.
type Grid struct {
	Rows int
	Cols int
}

// NewGrid returns a Grid, or a *SizeError when either dimension is below
// the minimum.
func NewGrid(rows, cols int) (Grid, error) {
	if rows < MinRows || cols < MinCols {
		return Grid{}, &SizeError{Rows: rows, Cols: cols, MinRows: MinRows, MinCols: MinCols}
	}
	return Grid{Rows: rows, Cols: cols}, nil
}

// Contains reports whether p lies inside [0,Rows) x [0,Cols).
func (g Grid) Contains(p Point) bool {
	return p.Row >= 0 && p.Row < g.Rows && p.Col >= 0 && p.Col < g.Cols
}

// Area is the number of cells in the grid.
func (g Grid) Area() int {
	return g.Rows * g.Cols
}

// Cells enumerates every cell in row-major order.
func (g Grid) Cells() []Point {
	cells := make([]Point, 0, g.Area())
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			cells = append(cells, Point{Row: row, Col: col})
		}
	}
	return cells
}

// Config holds the tunables of a session.
type Config struct {
	Rows            int
	Cols            int
	InitialInterval time.Duration
	MinInterval     time.Duration
	SpeedDecay      float64
	Seed            uint64
}

// DefaultConfig mirrors the classic 20x20 board.
func DefaultConfig() Config {
	return Config{
		Rows:            DefaultRows,
		Cols:            DefaultCols,
		InitialInterval: DefaultInitialInterval,
		MinInterval:     DefaultMinInterval,
		SpeedDecay:      DefaultSpeedDecay,
		Seed:            uint64(time.Now().UnixNano()),
	}
}

// Validate checks the speed settings. Grid size is checked by NewGrid so
// that callers get a *SizeError.
func (c Config) Validate() error {
	if c.InitialInterval <= 0 {
		return fmt.Errorf("%w: initial interval %v must be positive", ErrInvalidConfig, c.InitialInterval)
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("%w: minimum interval %v must be positive", ErrInvalidConfig, c.MinInterval)
	}
	if c.MinInterval > c.InitialInterval {
		return fmt.Errorf("%w: minimum interval %v exceeds initial interval %v", ErrInvalidConfig, c.MinInterval, c.InitialInterval)
	}
	if c.SpeedDecay <= 0 || c.SpeedDecay >= 1 {
		return fmt.Errorf("%w: speed decay %v must be in (0,1)", ErrInvalidConfig, c.SpeedDecay)
	}
	return nil
}
