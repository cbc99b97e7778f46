package game

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Default window dimensions.
const (
	windowWidth  = 1280
	windowHeight = 800
)

// hudScale is the integer upscale factor applied to all HUD text.
const hudScale = 2

// Camera zoom limits.
const (
	zoomMin = 0.5
	zoomMax = 4.0
)

// buildMenu lists the placeable tile defs in toolbar order. Index 0 is the
// demolish tool.
var buildMenu = []string{
	"clear",
	"dirt_path",
	"paved_road",
	"vacant_lot",
	"house0",
	"rice_farm",
	"lumber_mill",
	"smelter",
	"granary",
	"storage_yard",
	"well",
	"market",
	"tax_office",
}

// Game is the playable ebiten frontend around a Simulation.
type Game struct {
	width  int
	height int

	sim *Simulation

	// Camera pan + zoom in iso space.
	camX    float64 // iso-space X at the viewport centre
	camY    float64 // iso-space Y at the viewport centre
	camZoom float64

	// Simulation speed control.
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds

	// Edge-triggered input state.
	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool

	// Build toolbar.
	toolIndex  int
	cursorCell Cell

	// Road segment drag: press anchors the segment, release commits it.
	roadDragActive bool
	roadDragFrom   Cell

	showHUD          bool
	showGraphOverlay bool
	statusLine       string

	// Offscreen buffer for HUD text — rendered at 1x then blitted at hudScale.
	hudBuf *ebiten.Image
}

// simStepSecs is the fixed step fed to the core per tick (60 TPS at 1x).
const simStepSecs = 1.0 / 60.0

// New creates the frontend on the first built-in preset map.
func New() *Game {
	g := &Game{
		width:    windowWidth,
		height:   windowHeight,
		camZoom:  1.0,
		simSpeed: 1.0,
		showHUD:  true,
		prevKeys: make(map[ebiten.Key]bool),
	}
	g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	g.loadPreset(0)
	return g
}

// loadPreset replaces the simulation with a fresh one on the given built-in
// map, recentering the camera over it.
func (g *Game) loadPreset(index int) {
	presets := BuiltinPresets()
	if index < 0 || index >= len(presets) {
		return
	}
	p := &presets[index]
	g.sim = NewSimulation(SimulationOptions{
		MapSize: p.Size,
		Seed:    time.Now().UnixNano(),
	})
	if err := g.sim.LoadPreset(index); err != nil {
		g.statusLine = err.Error()
		return
	}
	center := CellToIso(Cell{X: p.Size.W / 2, Y: p.Size.H / 2}, BaseTileSize)
	g.camX = center.X
	g.camY = center.Y
	g.statusLine = "loaded " + p.Name
}

// cameraTransform maps iso space to screen space for the current pan/zoom.
func (g *Game) cameraTransform() WorldToScreenTransform {
	return WorldToScreenTransform{
		Scaling: g.camZoom,
		Offset: Vec2{
			X: float64(g.width)/2 - g.camX*g.camZoom,
			Y: float64(g.height)/2 - g.camY*g.camZoom,
		},
	}
}

func (g *Game) Update() error {
	g.handleInput()

	if g.simSpeed <= 0 {
		return nil
	}
	// For speeds > 1 run multiple sim ticks per frame; for speeds < 1
	// accumulate fractions.
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.sim.Update(simStepSecs)
	}
	return nil
}

// trackedKeys are the keys polled every frame for edge triggering.
var trackedKeys = []ebiten.Key{
	ebiten.KeyTab, ebiten.KeyH, ebiten.KeyG, ebiten.KeyP,
	ebiten.KeyComma, ebiten.KeyPeriod, ebiten.KeyEqual, ebiten.KeyMinus,
	ebiten.KeyU, ebiten.KeyR, ebiten.KeyC,
	ebiten.KeyF5, ebiten.KeyF9,
	ebiten.Key1, ebiten.Key2, ebiten.Key3,
}

func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	for _, k := range trackedKeys {
		currentKeys[k] = ebiten.IsKeyPressed(k)
	}
	pressed := func(k ebiten.Key) bool {
		return currentKeys[k] && !g.prevKeys[k]
	}

	// Camera pan; slower when zoomed in so screen-space speed stays even.
	panSpeed := 8.0 / g.camZoom
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.camX -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.camX += panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.camY -= panSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.camY += panSpeed
	}

	// Zoom: mouse wheel plus +/- keys.
	_, wy := ebiten.Wheel()
	if wy != 0 {
		g.camZoom *= math.Pow(1.12, wy)
	}
	if pressed(ebiten.KeyEqual) {
		g.camZoom *= 1.25
	}
	if pressed(ebiten.KeyMinus) {
		g.camZoom /= 1.25
	}
	if g.camZoom < zoomMin {
		g.camZoom = zoomMin
	}
	if g.camZoom > zoomMax {
		g.camZoom = zoomMax
	}

	// Speed ladder.
	speeds := []float64{0, 0.5, 1, 2, 4}
	if pressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if pressed(ebiten.KeyComma) {
		for i, s := range speeds {
			if s >= g.simSpeed && i > 0 {
				g.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if pressed(ebiten.KeyPeriod) {
		for i, s := range speeds {
			if s >= g.simSpeed {
				if i < len(speeds)-1 {
					g.simSpeed = speeds[i+1]
				}
				break
			}
		}
	}

	if pressed(ebiten.KeyTab) {
		g.toolIndex = (g.toolIndex + 1) % len(buildMenu)
		g.roadDragActive = false
	}
	if pressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if pressed(ebiten.KeyG) {
		g.showGraphOverlay = !g.showGraphOverlay
	}

	q := g.sim.Query(0)
	if pressed(ebiten.KeyU) {
		g.reportErr(g.sim.Placement().Journal().Undo(q))
	}
	if pressed(ebiten.KeyR) {
		g.reportErr(g.sim.Placement().Journal().Redo(q))
	}
	if pressed(ebiten.KeyF5) {
		g.reportErr(g.sim.SaveGame("quicksave"))
	}
	if pressed(ebiten.KeyF9) {
		g.reportErr(g.sim.LoadGame("quicksave"))
	}
	if pressed(ebiten.KeyC) {
		g.reportErr(clipboard.WriteAll(BuildSettlementReport(g.sim)))
		g.statusLine = "report copied to clipboard"
	}
	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3} {
		if pressed(k) {
			g.loadPreset(i)
		}
	}

	g.updateCursorAndMouse(q)
	g.prevKeys = currentKeys
}

// updateCursorAndMouse tracks the hovered cell and applies click edits.
func (g *Game) updateCursorAndMouse(q *Query) {
	mx, my := ebiten.CursorPosition()
	tr := g.cameraTransform()
	g.cursorCell = g.sim.TileMap().FindExactCellForPoint(Vec2{X: float64(mx), Y: float64(my)}, tr)

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	tool := buildMenu[g.toolIndex]
	def := g.sim.TileMap().TileSets().FindByName(tool)
	isRoad := def != nil && def.PathKind == NodeRoad

	switch {
	case left && !g.prevMouseLeft:
		if !g.sim.TileMap().InBounds(g.cursorCell) {
			break
		}
		switch {
		case tool == "clear":
			g.reportErr(g.sim.Placement().ClearTile(q, g.cursorCell))
		case isRoad:
			g.roadDragActive = true
			g.roadDragFrom = g.cursorCell
		case def != nil:
			g.reportErr(g.sim.Placement().PlaceTile(q, def, g.cursorCell))
		}

	case !left && g.prevMouseLeft && g.roadDragActive:
		g.roadDragActive = false
		if g.sim.TileMap().InBounds(g.cursorCell) {
			g.reportErr(g.sim.Placement().PlaceRoadSegment(q, def, g.roadDragFrom, g.cursorCell, SegmentHV))
		}
	}
	g.prevMouseLeft = left
}

// reportErr surfaces a failed operation on the HUD status line.
func (g *Game) reportErr(err error) {
	if err != nil {
		g.statusLine = err.Error()
	}
}

// toRGBA converts a core palette color to the backend color type.
func toRGBA(c Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ebitenTarget implements RenderTarget over an ebiten image using the vector
// drawing helpers.
type ebitenTarget struct {
	dst *ebiten.Image
}

func (t *ebitenTarget) FillDiamond(corners [4]Vec2, col Color) {
	var path vector.Path
	path.MoveTo(float32(corners[0].X), float32(corners[0].Y))
	for _, p := range corners[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()
	op := &vector.DrawPathOptions{}
	op.ColorScale.ScaleWithColor(toRGBA(col))
	vector.FillPath(t.dst, &path, &vector.FillOptions{}, op)
}

func (t *ebitenTarget) FillRect(r Rect, col Color) {
	vector.FillRect(t.dst, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), toRGBA(col), false)
}

func (t *ebitenTarget) StrokeRect(r Rect, width float64, col Color) {
	vector.StrokeRect(t.dst, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), float32(width), toRGBA(col), false)
}

func (t *ebitenTarget) StrokeLine(a, b Vec2, width float64, col Color) {
	vector.StrokeLine(t.dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), toRGBA(col), false)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 16, G: 20, B: 24, A: 255})

	tr := g.cameraTransform()
	viewport := Rect{W: float64(g.width), H: float64(g.height)}
	rt := &ebitenTarget{dst: screen}

	RenderFrame(g.sim.TileMap(), viewport, tr, rt)
	if g.showGraphOverlay {
		RenderGraphOverlay(g.sim.Graph(), VisibleCells(g.sim.TileMap(), viewport, tr), tr, rt)
	}
	if g.sim.TileMap().InBounds(g.cursorCell) {
		col := Color{R: 255, G: 255, B: 255, A: 255}
		if g.roadDragActive {
			col = Color{R: 255, G: 220, B: 120, A: 255}
			RenderCellOutline(g.roadDragFrom, tr, rt, col)
		}
		RenderCellOutline(g.cursorCell, tr, rt, col)
	}

	if g.showHUD {
		g.drawHUD(screen)
	}
}

// drawHUD renders the toolbar, census, and key hints. Text is drawn into
// hudBuf at 1x then composited onto the screen at hudScale.
func (g *Game) drawHUD(screen *ebiten.Image) {
	g.hudBuf.Clear()
	stats := g.sim.Stats()

	speedStr := fmt.Sprintf("%gx", g.simSpeed)
	if g.simSpeed == 0 {
		speedStr = "PAUSED"
	}
	line1 := fmt.Sprintf("gold %s | pop %d/%d | jobs %d/%d | tick %s | %s",
		humanize.Comma(int64(stats.TreasuryGold)),
		stats.Population, stats.HousingRoom,
		stats.WorkersHired, stats.WorkersWanted,
		humanize.Comma(int64(g.sim.Tick())), speedStr)
	line2 := fmt.Sprintf("tool: %s  (%d,%d)", buildMenu[g.toolIndex], g.cursorCell.X, g.cursorCell.Y)
	line3 := "tab tool | lmb build | u/r undo | f5/f9 save | 1-3 preset | ,/. speed | g overlay | c report"

	ebitenutil.DebugPrintAt(g.hudBuf, line1, 4, 2)
	ebitenutil.DebugPrintAt(g.hudBuf, line2, 4, 16)
	ebitenutil.DebugPrintAt(g.hudBuf, line3, 4, g.height/hudScale-16)
	if g.statusLine != "" {
		ebitenutil.DebugPrintAt(g.hudBuf, g.statusLine, 4, g.height/hudScale-32)
	}

	var opt ebiten.DrawImageOptions
	opt.GeoM.Scale(hudScale, hudScale)
	screen.DrawImage(g.hudBuf, &opt)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
