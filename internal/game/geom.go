package game

// Isometric diamond footprint of a single 1x1 cell, in pixels at zoom 1.
var BaseTileSize = Size{W: 64, H: 32}

// Cell is a signed (x, y) tile-grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InvalidCell is the reserved out-of-map sentinel.
var InvalidCell = Cell{X: -1, Y: -1}

// IsValid reports whether the cell is not the invalid sentinel.
func (c Cell) IsValid() bool {
	return c.X >= 0 && c.Y >= 0
}

// Add returns c offset by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// ManhattanDistance returns |dx| + |dy| between two cells.
func (c Cell) ManhattanDistance(other Cell) int {
	return absInt(c.X-other.X) + absInt(c.Y-other.Y)
}

// Size is a width/height pair, in cells or pixels depending on context.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Vec2 is a 2D float vector in screen or iso space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned screen-space rectangle.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// CellRange is an inclusive rectangular region of cells.
type CellRange struct {
	Start Cell `json:"start"`
	End   Cell `json:"end"`
}

// RangeForSize returns the inclusive range covered by a tile of the given
// logical size in cells anchored at base.
func RangeForSize(base Cell, sizeInCells Size) CellRange {
	return CellRange{
		Start: base,
		End:   Cell{X: base.X + sizeInCells.W - 1, Y: base.Y + sizeInCells.H - 1},
	}
}

// Size returns the range extent in cells (inclusive on both ends).
func (r CellRange) Size() Size {
	return Size{W: r.End.X - r.Start.X + 1, H: r.End.Y - r.Start.Y + 1}
}

// Contains reports whether the cell lies inside the range.
func (r CellRange) Contains(c Cell) bool {
	return c.X >= r.Start.X && c.X <= r.End.X && c.Y >= r.Start.Y && c.Y <= r.End.Y
}

// Intersects reports whether two ranges overlap.
func (r CellRange) Intersects(other CellRange) bool {
	return r.Start.X <= other.End.X && r.End.X >= other.Start.X &&
		r.Start.Y <= other.End.Y && r.End.Y >= other.Start.Y
}

// ForEach visits every cell of the range in row-major order. Returning false
// from the visitor stops the iteration early.
func (r CellRange) ForEach(visit func(Cell) bool) {
	for y := r.Start.Y; y <= r.End.Y; y++ {
		for x := r.Start.X; x <= r.End.X; x++ {
			if !visit(Cell{X: x, Y: y}) {
				return
			}
		}
	}
}

// Cells returns every cell of the range in row-major order.
func (r CellRange) Cells() []Cell {
	sz := r.Size()
	out := make([]Cell, 0, sz.W*sz.H)
	r.ForEach(func(c Cell) bool {
		out = append(out, c)
		return true
	})
	return out
}

// IsoPoint is a position in isometric world space, in pixels at zoom 1.
type IsoPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorldToScreenTransform is the camera: a uniform scale plus a screen offset.
type WorldToScreenTransform struct {
	Scaling float64 `json:"scaling"`
	Offset  Vec2    `json:"offset"`
}

// IdentityTransform returns a transform with no zoom and no pan.
func IdentityTransform() WorldToScreenTransform {
	return WorldToScreenTransform{Scaling: 1}
}

// CellToIso converts a grid cell to the iso-space position of the tile's
// top-left draw corner for a tile of the given logical size. Iso Y grows
// downward like screen Y, so deeper rows (larger x+y) land lower.
func CellToIso(c Cell, sizeInPixels Size) IsoPoint {
	halfW := float64(sizeInPixels.W) / 2
	halfH := float64(sizeInPixels.H) / 2
	return IsoPoint{
		X: float64(c.X-c.Y) * halfW,
		Y: float64(c.X+c.Y) * halfH,
	}
}

// IsoToCell converts an iso-space point back to the grid cell containing it.
// Points exactly on a diamond seam resolve to the lower-indexed cell.
func IsoToCell(p IsoPoint, sizeInPixels Size) Cell {
	halfW := float64(sizeInPixels.W) / 2
	halfH := float64(sizeInPixels.H) / 2
	fx := p.X/halfW + p.Y/halfH
	fy := p.Y/halfH - p.X/halfW
	return Cell{X: floorToInt(fx / 2), Y: floorToInt(fy / 2)}
}

// IsoToScreenRect places an iso-space tile of the given pixel size on screen.
func IsoToScreenRect(p IsoPoint, sizeInPixels Size, t WorldToScreenTransform) Rect {
	return Rect{
		X: p.X*t.Scaling + t.Offset.X,
		Y: p.Y*t.Scaling + t.Offset.Y,
		W: float64(sizeInPixels.W) * t.Scaling,
		H: float64(sizeInPixels.H) * t.Scaling,
	}
}

// ScreenToIsoPoint inverts the camera transform for a screen-space point.
func ScreenToIsoPoint(p Vec2, t WorldToScreenTransform) IsoPoint {
	return IsoPoint{
		X: (p.X - t.Offset.X) / t.Scaling,
		Y: (p.Y - t.Offset.Y) / t.Scaling,
	}
}

// CellToScreenDiamondPoints returns the four screen-space corners of a cell's
// isometric diamond, in order: top, right, bottom, left.
func CellToScreenDiamondPoints(c Cell, t WorldToScreenTransform) [4]Vec2 {
	iso := CellToIso(c, BaseTileSize)
	r := IsoToScreenRect(iso, BaseTileSize, t)
	return [4]Vec2{
		{X: r.X + r.W/2, Y: r.Y},         // top
		{X: r.X + r.W, Y: r.Y + r.H/2},   // right
		{X: r.X + r.W/2, Y: r.Y + r.H},   // bottom
		{X: r.X, Y: r.Y + r.H/2},         // left
	}
}

// IsScreenPointInsideCell tests a screen point against a cell's diamond.
func IsScreenPointInsideCell(p Vec2, c Cell, t WorldToScreenTransform) bool {
	d := CellToScreenDiamondPoints(c, t)
	cx := d[0].X
	cy := d[1].Y
	halfW := d[1].X - cx
	halfH := d[2].Y - cy
	if halfW <= 0 || halfH <= 0 {
		return false
	}
	// Diamond test: |dx|/halfW + |dy|/halfH <= 1.
	dx := absFloat(p.X - cx)
	dy := absFloat(p.Y - cy)
	return dx/halfW+dy/halfH <= 1.0
}

// LerpIso linearly interpolates between two iso positions.
func LerpIso(a, b IsoPoint, f float64) IsoPoint {
	return IsoPoint{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func floorToInt(f float64) int {
	i := int(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return i
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
