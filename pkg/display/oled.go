package display

import (
	"image"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// OLED is a Canvas flushed to an SSD1306 panel.
type OLED struct {
	*Canvas
	dev *ssd1306.Dev
}

// NewOLED initializes the SSD1306 on bus.
func NewOLED(bus i2c.Bus, opts *ssd1306.Opts) (*OLED, error) {
	dev, err := ssd1306.NewI2C(bus, opts)
	if err != nil {
		return nil, err
	}
	return &OLED{Canvas: NewCanvas(dev.Bounds()), dev: dev}, nil
}

// Display implements Panel.
func (o *OLED) Display() error {
	return o.dev.Draw(o.dev.Bounds(), o.Image(), image.Point{})
}

// Close turns off the panel.
func (o *OLED) Close() error {
	return o.dev.Halt()
}

// Memory is a Panel that only keeps the framebuffer, used when no
// panel is attached.
type Memory struct {
	*Canvas
	Frames int
}

// NewMemory creates a Memory panel of the given size.
func NewMemory(w, h int) *Memory {
	return &Memory{Canvas: NewCanvas(image.Rect(0, 0, w, h))}
}

// Display implements Panel.
func (m *Memory) Display() error {
	m.Frames++
	return nil
}
