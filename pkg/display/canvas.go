// Package display renders text and bitmaps on a monochrome panel.
package display

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Panel is a text/bitmap display with a cursor, changes become visible
// on Display.
type Panel interface {
	Clear()
	SetCursor(x, y int)
	Print(s string)
	Println(s string)
	// DrawBitmap draws set bits of a row-major, MSB-first bitmap at (x, y).
	DrawBitmap(x, y int, bmp []byte, w, h int)
	Display() error
}

// Canvas is an in-memory 1-bit framebuffer implementing everything in
// Panel except Display.
type Canvas struct {
	Face font.Face
	// Wrap moves text exceeding the right edge to the next line.
	Wrap bool

	img    *image1bit.VerticalLSB
	cursor image.Point
}

// NewCanvas creates a blank canvas.
func NewCanvas(bounds image.Rectangle) *Canvas {
	return &Canvas{
		Face: basicfont.Face7x13,
		Wrap: true,
		img:  image1bit.NewVerticalLSB(bounds),
	}
}

// Image returns the framebuffer.
func (c *Canvas) Image() *image1bit.VerticalLSB {
	return c.img
}

// Cursor returns the current text position.
func (c *Canvas) Cursor() image.Point {
	return c.cursor
}

// Clear turns off all pixels, the cursor is kept.
func (c *Canvas) Clear() {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
}

// SetCursor sets the top-left position of the next character.
func (c *Canvas) SetCursor(x, y int) {
	c.cursor = image.Pt(x, y)
}

// Print draws text at the cursor and advances it.
func (c *Canvas) Print(s string) {
	metrics := c.Face.Metrics()
	drawer := font.Drawer{
		Dst:  c.img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: c.Face,
	}
	width := c.img.Bounds().Max.X
	for _, r := range s {
		if r == '\n' {
			c.newLine()
			continue
		}
		if r == '\r' {
			continue
		}
		adv, ok := c.Face.GlyphAdvance(r)
		if !ok {
			adv, _ = c.Face.GlyphAdvance('?')
		}
		if c.Wrap && c.cursor.X+adv.Ceil() > width {
			c.newLine()
		}
		drawer.Dot = fixed.P(c.cursor.X, c.cursor.Y+metrics.Ascent.Ceil())
		drawer.DrawString(string(r))
		c.cursor.X += adv.Ceil()
	}
}

// Println draws text and moves the cursor to the next line.
func (c *Canvas) Println(s string) {
	c.Print(s)
	c.newLine()
}

func (c *Canvas) newLine() {
	c.cursor.X = 0
	c.cursor.Y += c.Face.Metrics().Height.Ceil()
}

// DrawBitmap draws the set bits of bmp, unset bits are transparent.
func (c *Canvas) DrawBitmap(x, y int, bmp []byte, w, h int) {
	stride := (w + 7) / 8
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			n := j*stride + i/8
			if n >= len(bmp) {
				return
			}
			if bmp[n]&(0x80>>uint(i&7)) != 0 {
				c.img.SetBit(x+i, y+j, image1bit.On)
			}
		}
	}
}

// Pixel tells whether the pixel at (x, y) is on.
func (c *Canvas) Pixel(x, y int) bool {
	return bool(c.img.BitAt(x, y))
}
