package graphics

import (
	"context"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Window settings for the viewer.
const (
	Title         = "anypose viewer"
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Background is the stage clear color (#2a2a2a).
var Background = rl.NewColor(0x2a, 0x2a, 0x2a, 255)

// Run opens a resizable window and runs the main loop until the window is closed or ctx is done.
// Each frame it calls update, then clears to Background and calls draw. cleanup, if set, runs
// before the window closes so GPU resources can still be freed.
// ESC toggles the terminal, so it is not the exit key.
func Run(ctx context.Context, update, draw, cleanup func()) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(DefaultWidth, DefaultHeight, Title)
	defer rl.CloseWindow()

	rl.SetExitKey(rl.KeyNull)
	rl.SetTargetFPS(60)

	if cleanup != nil {
		defer cleanup()
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		update()

		rl.BeginDrawing()
		rl.ClearBackground(Background)
		draw()
		rl.EndDrawing()
	}
}
