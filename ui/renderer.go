package ui

import (
	"fmt"
	"time"

	"snake-term/game"
	"snake-term/game/types"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	borderPadding = 10 // Padding around game area
	hudPixels     = 30 // Space above the grid for the score line
	maxCellSize   = 30
)

var windowKeys = []struct {
	key int32
	in  game.Input
}{
	{rl.KeyUp, game.InputUp},
	{rl.KeyW, game.InputUp},
	{rl.KeyDown, game.InputDown},
	{rl.KeyS, game.InputDown},
	{rl.KeyLeft, game.InputLeft},
	{rl.KeyA, game.InputLeft},
	{rl.KeyRight, game.InputRight},
	{rl.KeyD, game.InputRight},
	{rl.KeyQ, game.InputQuit},
	{rl.KeySpace, game.InputPause},
}

// Window is the desktop frontend. raylib only polls the keyboard when a
// frame ends, so Poll keeps drawing frames until input or the deadline.
type Window struct {
	grid     types.Grid
	cellSize int32
	offsetX  int32
	offsetY  int32
	game     *game.Game
	paused   bool
	banner   []string
}

// NewWindow opens a window sized for the grid.
func NewWindow(grid types.Grid) *Window {
	w := &Window{grid: grid}
	w.cellSize = maxCellSize
	width := int32(grid.Cols)*w.cellSize + borderPadding*2
	height := int32(grid.Rows)*w.cellSize + borderPadding*2 + hudPixels

	rl.InitWindow(width, height, "snake")
	rl.SetWindowState(rl.FlagWindowResizable)
	rl.SetTargetFPS(60)
	w.UpdateDimensions()
	return w
}

// UpdateDimensions fits the cell size to the current window.
func (w *Window) UpdateDimensions() {
	screenWidth := int32(rl.GetScreenWidth())
	screenHeight := int32(rl.GetScreenHeight())

	availableWidth := screenWidth - borderPadding*2
	availableHeight := screenHeight - borderPadding*2 - hudPixels

	cellW := availableWidth / int32(w.grid.Cols)
	cellH := availableHeight / int32(w.grid.Rows)
	w.cellSize = max(min(cellW, cellH), 1)

	w.offsetX = (screenWidth - w.cellSize*int32(w.grid.Cols)) / 2
	w.offsetY = borderPadding + hudPixels
}

// Poll implements game.InputSource.
func (w *Window) Poll(deadline time.Time) game.Input {
	return pollFrames(deadline, w.frame, windowInput)
}

// pollFrames ends a frame before every read. raylib latches key presses
// until the next EndDrawing, so reading first would hand the same key
// back on every call until the deadline.
func pollFrames(deadline time.Time, frame func(), read func() game.Input) game.Input {
	for time.Now().Before(deadline) {
		frame()
		if in := read(); in != game.InputNone {
			return in
		}
	}
	return game.InputNone
}

func windowInput() game.Input {
	if rl.WindowShouldClose() {
		return game.InputQuit
	}
	for _, k := range windowKeys {
		if rl.IsKeyPressed(k.key) {
			return k.in
		}
	}
	return game.InputNone
}

// Draw implements game.Renderer.
func (w *Window) Draw(g *game.Game) {
	w.game = g
	w.frame()
}

func (w *Window) SetPaused(paused bool) {
	w.paused = paused
}

// AwaitRestart shows the result until R (retry) or Q / window close.
func (w *Window) AwaitRestart(res game.Result) bool {
	w.banner = []string{res.String(), "R: retry   Q: quit"}
	defer func() { w.banner = nil }()
	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyR) {
			return true
		}
		if rl.IsKeyPressed(rl.KeyQ) {
			return false
		}
		w.frame()
	}
	return false
}

func (w *Window) Close() {
	rl.CloseWindow()
}

func (w *Window) frame() {
	if rl.IsWindowResized() {
		w.UpdateDimensions()
	}
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	if w.game != nil {
		w.drawBoard(w.game)
	}
	lines := w.banner
	if lines == nil && w.paused {
		lines = []string{"PAUSED", "space to resume"}
		if w.game != nil && w.game.Steps == 0 {
			lines = []string{"Press space to start"}
		}
	}
	w.drawBanner(lines)
	rl.EndDrawing()
}

func (w *Window) drawBoard(g *game.Game) {
	gridWidth := w.cellSize * int32(w.grid.Cols)
	gridHeight := w.cellSize * int32(w.grid.Rows)

	rl.DrawRectangleLines(w.offsetX-1, w.offsetY-1, gridWidth+2, gridHeight+2, rl.Gray)

	fontSize := int32(20)
	hud := fmt.Sprintf("Score: %d  Length: %d  Speed: %dms", g.Score(), g.Len(), g.Interval().Milliseconds())
	rl.DrawText(hud, w.offsetX, borderPadding, fontSize, rl.White)

	if food, ok := g.Food(); ok {
		w.drawCell(food, rl.Red)
	}
	for i, p := range g.Body() {
		color := rl.Green
		if i == 0 {
			color = rl.Lime
		}
		w.drawCell(p, color)
	}
}

func (w *Window) drawCell(p types.Point, color rl.Color) {
	rl.DrawRectangle(
		w.offsetX+int32(p.Col)*w.cellSize+1,
		w.offsetY+int32(p.Row)*w.cellSize+1,
		w.cellSize-2, w.cellSize-2, color)
}

func (w *Window) drawBanner(lines []string) {
	if len(lines) == 0 {
		return
	}
	fontSize := int32(24)
	centerX := w.offsetX + w.cellSize*int32(w.grid.Cols)/2
	centerY := w.offsetY + w.cellSize*int32(w.grid.Rows)/2
	for i, line := range lines {
		textWidth := rl.MeasureText(line, fontSize)
		rl.DrawText(line, centerX-textWidth/2, centerY+int32(i)*(fontSize+6), fontSize, rl.Yellow)
	}
}
