package ui

import (
	"testing"
	"time"

	"snake-term/game"
	"snake-term/game/types"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimTerminal(t *testing.T, rows, cols int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	grid, err := types.NewGrid(rows, cols)
	require.NoError(t, err)

	sim := tcell.NewSimulationScreen("UTF-8")
	term, err := NewTerminalScreen(sim, grid)
	require.NoError(t, err)
	t.Cleanup(term.Close)
	return term, sim
}

func TestTerminalKey(t *testing.T) {
	tests := []struct {
		ev   *tcell.EventKey
		want game.Input
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), game.InputUp},
		{tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), game.InputDown},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), game.InputLeft},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), game.InputRight},
		{tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), game.InputUp},
		{tcell.NewEventKey(tcell.KeyRune, 'S', tcell.ModNone), game.InputDown},
		{tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), game.InputLeft},
		{tcell.NewEventKey(tcell.KeyRune, 'D', tcell.ModNone), game.InputRight},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), game.InputQuit},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), game.InputQuit},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), game.InputPause},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), game.InputNone},
		{tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone), game.InputNone},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TerminalKey(tc.ev), "key %s", tc.ev.Name())
	}
}

func TestTerminalPoll(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 20)

	sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	sim.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	assert.Equal(t, game.InputUp, term.Poll(time.Now().Add(time.Second)))

	start := time.Now()
	assert.Equal(t, game.InputNone, term.Poll(start.Add(20*time.Millisecond)))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTerminalDraw(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 20)
	cfg := types.DefaultConfig()
	cfg.Rows, cfg.Cols, cfg.Seed = 10, 20, 1
	g, err := game.NewGame(cfg)
	require.NoError(t, err)

	term.Draw(g)

	cells, width, _ := sim.GetContents()
	at := func(x, y int) tcell.SimCell { return cells[y*width+x] }

	assert.Equal(t, []rune{tcell.RuneULCorner}, at(0, hudHeight).Runes)
	assert.Equal(t, []rune{tcell.RuneLRCorner}, at(20*cellWidth+1, hudHeight+11).Runes)

	hx, hy := screenPos(g.Head())
	assert.Equal(t, styleHead, at(hx, hy).Style)
	bx, by := screenPos(g.Body()[1])
	assert.Equal(t, styleBody, at(bx, by).Style)

	food, ok := g.Food()
	require.True(t, ok)
	fx, fy := screenPos(food)
	assert.Equal(t, []rune{'●'}, at(fx, fy).Runes)

	hud := string(runesAt(cells, 0, 5))
	assert.Equal(t, "Score", hud)
}

func TestTerminalPausedBanner(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 20)
	cfg := types.DefaultConfig()
	cfg.Rows, cfg.Cols = 10, 20
	g, err := game.NewGame(cfg)
	require.NoError(t, err)

	term.SetPaused(true)
	term.Draw(g)

	cells, width, _ := sim.GetContents()
	text := "Press space to start"
	x := 1 + 20*cellWidth/2 - len(text)/2
	y := hudHeight + 1 + 5
	assert.Equal(t, "Press", string(runesAt(cells, y*width+x, 5)), "a game that never ticked waits for a start")

	g.Tick()
	term.Draw(g)

	cells, width, _ = sim.GetContents()
	text = "PAUSED - space to resume"
	x = 1 + 20*cellWidth/2 - len(text)/2
	assert.Equal(t, "PAUSED", string(runesAt(cells, y*width+x, 6)))
}

func TestTerminalAwaitRestart(t *testing.T) {
	term, sim := newSimTerminal(t, 10, 20)

	sim.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	assert.True(t, term.AwaitRestart(game.Result{Score: 3}))

	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.False(t, term.AwaitRestart(game.Result{Score: 3}))
}

func TestTerminalTooSmall(t *testing.T) {
	grid, err := types.NewGrid(40, 60)
	require.NoError(t, err)

	sim := tcell.NewSimulationScreen("UTF-8")
	_, err = NewTerminalScreen(sim, grid)
	assert.ErrorContains(t, err, "need 122x43")
}

func runesAt(cells []tcell.SimCell, from, n int) []rune {
	out := make([]rune, 0, n)
	for _, c := range cells[from : from+n] {
		out = append(out, c.Runes...)
	}
	return out
}
