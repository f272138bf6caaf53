package viz

import (
	"math"
	"strings"

	"github.com/san-kum/coastal/internal/dynamo"
)

// blank is the empty braille cell; dots are OR-ed onto it.
const blank = 0x2800

// dotBits maps a sub-pixel (row, col) inside a 2x4 braille cell to its bit.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille raster of Width x Height characters, giving
// 2*Width x 4*Height sub-pixels. Sub-pixel y grows downwards.
type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= 2*c.Width || y >= 4*c.Height {
		return 0, false
	}
	return (y/4)*c.Width + x/2, true
}

// Set lights the sub-pixel at (x, y). Points off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if k, ok := c.cell(x, y); ok {
		c.cells[k] |= dotBits[y%4][x%2]
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	k, ok := c.cell(x, y)
	return ok && c.cells[k]&dotBits[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for k := range c.cells {
		c.cells[k] = blank
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

// level maps v in [lo, hi] to a sub-pixel row, hi on top. Values outside
// the range are clipped.
func (c *Canvas) level(v, lo, hi float64) int {
	ch := 4 * c.Height
	if hi <= lo {
		hi = lo + 1
	}
	r := int(math.Round((hi - v) / (hi - lo) * float64(ch-1)))
	return max(0, min(r, ch-1))
}

// column maps grid index i of n points to a sub-pixel column.
func (c *Canvas) column(i, n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round(float64(i) * float64(2*c.Width-1) / float64(n-1)))
}

// DrawProfile plots values across the full canvas width with lo at the
// bottom row and hi at the top.
func (c *Canvas) DrawProfile(values []float64, lo, hi float64) {
	n := len(values)
	if n == 0 {
		return
	}
	px, py := c.column(0, n), c.level(values[0], lo, hi)
	c.Set(px, py)
	for i := 1; i < n; i++ {
		x, y := c.column(i, n), c.level(values[i], lo, hi)
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

// DrawDatum dots the still-water line (zero) every fourth sub-pixel.
func (c *Canvas) DrawDatum(lo, hi float64) {
	if lo > 0 || hi < 0 {
		return
	}
	y := c.level(0, lo, hi)
	for x := 0; x < 2*c.Width; x += 4 {
		c.Set(x, y)
	}
}

// MarkColumn draws a short tick on the bottom row under grid point i of n,
// e.g. the gauge position.
func (c *Canvas) MarkColumn(i, n int) {
	x, bottom := c.column(i, n), 4*c.Height-1
	for y := bottom; y > bottom-3 && y >= 0; y-- {
		c.Set(x, y)
	}
}

// DrawPlan shades a 2D field seen from above: a sub-pixel is lit where the
// nearest grid value exceeds level.
func (c *Canvas) DrawPlan(f *dynamo.Field, level float64) {
	if f == nil {
		return
	}
	cw, ch := 2*c.Width, 4*c.Height
	for y := 0; y < ch; y++ {
		j := (ch - 1 - y) * (f.Ny - 1) / max(ch-1, 1)
		for x := 0; x < cw; x++ {
			i := x * (f.Nx - 1) / max(cw-1, 1)
			if f.At(i, j) > level {
				c.Set(x, y)
			}
		}
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
