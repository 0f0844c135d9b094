package game

import (
	"time"

	"snake-term/game/types"
)

// Input is the semantic form of a key press. Platform key codes are
// translated into it by the frontends.
type Input int

const (
	InputNone Input = iota
	InputUp
	InputDown
	InputLeft
	InputRight
	InputQuit
	InputPause
)

func (in Input) String() string {
	switch in {
	case InputUp:
		return "up"
	case InputDown:
		return "down"
	case InputLeft:
		return "left"
	case InputRight:
		return "right"
	case InputQuit:
		return "quit"
	case InputPause:
		return "pause"
	default:
		return "none"
	}
}

// Direction maps a directional input to its Direction.
func (in Input) Direction() (types.Direction, bool) {
	switch in {
	case InputUp:
		return types.Up, true
	case InputDown:
		return types.Down, true
	case InputLeft:
		return types.Left, true
	case InputRight:
		return types.Right, true
	default:
		return 0, false
	}
}

// InputFor is the inverse of Input.Direction.
func InputFor(d types.Direction) Input {
	switch d {
	case types.Up:
		return InputUp
	case types.Down:
		return InputDown
	case types.Left:
		return InputLeft
	case types.Right:
		return InputRight
	default:
		return InputNone
	}
}

// InputSource supplies player intent. Poll returns the next input received
// before deadline, or InputNone once the deadline has passed. It must not
// block past the deadline.
type InputSource interface {
	Poll(deadline time.Time) Input
}

// Renderer draws the game. Draw is called once before the first tick and
// after every tick, always from the loop goroutine.
type Renderer interface {
	Draw(g *Game)
}

// Pauser is implemented by renderers that show a paused banner.
type Pauser interface {
	SetPaused(paused bool)
}
