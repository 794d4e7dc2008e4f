package display

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litPixels(c *Canvas, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c.Pixel(x, y) {
				n++
			}
		}
	}
	return n
}

func TestPrintln(t *testing.T) {
	m := NewMemory(128, 64)
	m.SetCursor(0, 0)
	m.Println("Heart BPM")
	assert.Equal(t, image.Pt(0, 13), m.Cursor())
	assert.NotZero(t, litPixels(m.Canvas, image.Rect(0, 0, 128, 13)))
	assert.Zero(t, litPixels(m.Canvas, image.Rect(0, 13, 128, 64)))

	m.Print("72.00")
	assert.Equal(t, image.Pt(35, 13), m.Cursor())
	m.Println("")
	assert.Equal(t, image.Pt(0, 26), m.Cursor())
}

func TestPrintWrap(t *testing.T) {
	m := NewMemory(128, 64)
	m.Println("Initializing pulse oximeter..")
	// 29 glyphs of 7 pixels don't fit in 128 pixels.
	assert.Equal(t, image.Pt(0, 26), m.Cursor())

	m.Clear()
	assert.Zero(t, litPixels(m.Canvas, m.Image().Bounds()))
	m.Wrap = false
	m.SetCursor(0, 0)
	m.Print("Initializing pulse oximeter..")
	assert.Equal(t, 0, m.Cursor().Y)
}

func TestPrintNewLine(t *testing.T) {
	m := NewMemory(128, 64)
	m.Print("a\nb")
	assert.Equal(t, image.Pt(7, 13), m.Cursor())
}

func TestDrawHeart(t *testing.T) {
	m := NewMemory(128, 64)
	DrawHeart(m)
	require.NoError(t, m.Display())
	assert.Equal(t, 1, m.Frames)

	r := image.Rect(HeartX, HeartY, HeartX+HeartW, HeartY+HeartH)
	lit := litPixels(m.Canvas, r)
	expected := 0
	for _, b := range Heart {
		for ; b != 0; b &= b - 1 {
			expected++
		}
	}
	assert.Equal(t, expected, lit)
	assert.Equal(t, lit, litPixels(m.Canvas, m.Image().Bounds()))

	// row 1: 0x01 0x80 0x18 0x00
	assert.False(t, m.Pixel(HeartX+6, HeartY+1))
	assert.True(t, m.Pixel(HeartX+7, HeartY+1))
	assert.True(t, m.Pixel(HeartX+8, HeartY+1))
	assert.True(t, m.Pixel(HeartX+19, HeartY+1))
	assert.False(t, m.Pixel(HeartX+21, HeartY+1))
}

func TestDrawBitmapTransparent(t *testing.T) {
	m := NewMemory(16, 8)
	m.DrawBitmap(0, 0, []byte{0xff, 0xff}, 16, 1)
	m.DrawBitmap(0, 0, []byte{0x00, 0x01}, 16, 1)
	assert.Equal(t, 16, litPixels(m.Canvas, m.Image().Bounds()))
	// short bitmaps are clipped.
	m.DrawBitmap(0, 2, []byte{0xff}, 16, 4)
	assert.Equal(t, 24, litPixels(m.Canvas, m.Image().Bounds()))
}

func TestNewPanelDisabled(t *testing.T) {
	conf := NewConfig()
	conf.Disabled = true
	p, err := conf.NewPanel(nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, p)
}
