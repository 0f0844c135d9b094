package ui

import (
	"fmt"
	"time"

	"snake-term/game"
	"snake-term/game/types"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"
)

const (
	cellWidth = 2 // terminal columns per grid cell, keeps cells roughly square
	hudHeight = 1
)

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBody   = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleHead   = tcell.StyleDefault.Background(tcell.ColorLime)
	styleFood   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleBanner = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMaroon).Bold(true)
)

var keyInputs = map[tcell.Key]game.Input{
	tcell.KeyUp:     game.InputUp,
	tcell.KeyDown:   game.InputDown,
	tcell.KeyLeft:   game.InputLeft,
	tcell.KeyRight:  game.InputRight,
	tcell.KeyEscape: game.InputQuit,
	tcell.KeyCtrlC:  game.InputQuit,
}

var runeInputs = map[rune]game.Input{
	'w': game.InputUp, 'W': game.InputUp,
	's': game.InputDown, 'S': game.InputDown,
	'a': game.InputLeft, 'A': game.InputLeft,
	'd': game.InputRight, 'D': game.InputRight,
	'q': game.InputQuit, 'Q': game.InputQuit,
	' ': game.InputPause,
}

// TerminalKey translates a tcell key event. Unknown keys map to InputNone.
func TerminalKey(ev *tcell.EventKey) game.Input {
	if ev.Key() == tcell.KeyRune {
		return runeInputs[ev.Rune()]
	}
	return keyInputs[ev.Key()]
}

// Terminal draws the board in a tcell screen and reads the keyboard.
// A goroutine pumps screen events into a channel; everything else runs on
// the caller's goroutine.
type Terminal struct {
	screen tcell.Screen
	grid   types.Grid
	events chan tcell.Event
	done   chan struct{}
	paused bool
}

// NewTerminal takes over the controlling terminal.
func NewTerminal(grid types.Grid) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewTerminalScreen(s, grid)
}

// NewTerminalScreen wraps an uninitialised screen, which lets tests pass a
// tcell.SimulationScreen.
func NewTerminalScreen(s tcell.Screen, grid types.Grid) (*Terminal, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	w, h := s.Size()
	needW, needH := grid.Cols*cellWidth+2, grid.Rows+2+hudHeight
	if w < needW || h < needH {
		s.Fini()
		return nil, fmt.Errorf("terminal is %dx%d, need %dx%d for a %dx%d board", w, h, needW, needH, grid.Rows, grid.Cols)
	}
	s.HideCursor()
	s.Clear()

	t := &Terminal{
		screen: s,
		grid:   grid,
		events: make(chan tcell.Event, 32),
		done:   make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

func (t *Terminal) pump() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

// Poll implements game.InputSource.
func (t *Terminal) Poll(deadline time.Time) game.Input {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	for {
		select {
		case ev := <-t.events:
			if in := t.handle(ev); in != game.InputNone {
				return in
			}
		case <-timer.C:
			return game.InputNone
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) game.Input {
	switch e := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		in := TerminalKey(e)
		if in == game.InputNone {
			log.WithField("key", e.Name()).Trace("ignored key")
		}
		return in
	}
	return game.InputNone
}

func (t *Terminal) SetPaused(paused bool) {
	t.paused = paused
}

// Draw implements game.Renderer.
func (t *Terminal) Draw(g *game.Game) {
	t.screen.Clear()
	t.drawHUD(g)
	t.drawBorder()

	if food, ok := g.Food(); ok {
		t.drawCell(food, '●', styleFood)
	}
	for i, p := range g.Body() {
		if i == 0 {
			t.drawCell(p, ' ', styleHead)
			continue
		}
		t.drawCell(p, ' ', styleBody)
	}

	switch {
	case t.paused && g.Steps == 0:
		t.drawBanner("Press space to start")
	case t.paused:
		t.drawBanner("PAUSED - space to resume")
	}
	t.screen.Show()
}

// AwaitRestart shows the result and blocks until the player picks retry
// (true) or quit (false).
func (t *Terminal) AwaitRestart(res game.Result) bool {
	t.drawBanner(res.String())
	t.drawBannerAt(1, "r: retry   q: quit")
	t.screen.Show()
	for ev := range t.events {
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			t.handle(ev)
			continue
		}
		if key.Key() == tcell.KeyRune && (key.Rune() == 'r' || key.Rune() == 'R') {
			return true
		}
		if TerminalKey(key) == game.InputQuit {
			return false
		}
	}
	return false
}

// Close restores the terminal.
func (t *Terminal) Close() {
	close(t.done)
	t.screen.Fini()
}

func (t *Terminal) drawHUD(g *game.Game) {
	hud := fmt.Sprintf("Score: %d  Length: %d  Speed: %dms", g.Score(), g.Len(), g.Interval().Milliseconds())
	drawText(t.screen, 0, 0, hud, styleHUD)
}

func (t *Terminal) drawBorder() {
	top, left := hudHeight, 0
	bottom, right := top+t.grid.Rows+1, left+t.grid.Cols*cellWidth+1
	for x := left + 1; x < right; x++ {
		t.screen.SetContent(x, top, tcell.RuneHLine, nil, styleBorder)
		t.screen.SetContent(x, bottom, tcell.RuneHLine, nil, styleBorder)
	}
	for y := top + 1; y < bottom; y++ {
		t.screen.SetContent(left, y, tcell.RuneVLine, nil, styleBorder)
		t.screen.SetContent(right, y, tcell.RuneVLine, nil, styleBorder)
	}
	t.screen.SetContent(left, top, tcell.RuneULCorner, nil, styleBorder)
	t.screen.SetContent(right, top, tcell.RuneURCorner, nil, styleBorder)
	t.screen.SetContent(left, bottom, tcell.RuneLLCorner, nil, styleBorder)
	t.screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, styleBorder)
}

// screenPos maps a grid cell to the left terminal column and row it uses.
func screenPos(p types.Point) (x, y int) {
	return 1 + p.Col*cellWidth, hudHeight + 1 + p.Row
}

func (t *Terminal) drawCell(p types.Point, r rune, st tcell.Style) {
	x, y := screenPos(p)
	t.screen.SetContent(x, y, r, nil, st)
	t.screen.SetContent(x+1, y, ' ', nil, st)
}

func (t *Terminal) drawBanner(text string) {
	t.drawBannerAt(0, text)
}

func (t *Terminal) drawBannerAt(line int, text string) {
	cx := 1 + t.grid.Cols*cellWidth/2
	cy := hudHeight + 1 + t.grid.Rows/2 + line
	drawText(t.screen, cx-len([]rune(text))/2, cy, text, styleBanner)
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, st)
	}
}
