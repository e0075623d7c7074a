// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// Drawer is the part of *ssd1306.Dev the display sink uses.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Display shows the latest sample on a 128x64 OLED. Redraws are rate limited;
// samples arriving in between are dropped.
type Display struct {
	dev      Drawer
	interval time.Duration
	last     time.Time
	now      func() time.Time
	closer   func() error
}

// OpenDisplay initializes periph, opens the I2C bus and the SSD1306 on it.
// An empty bus name picks the first bus available.
func OpenDisplay(busName string, interval time.Duration) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: ssd1306 initialized on I2C bus %q", busName)

	d := NewDisplay(dev, interval)
	d.closer = func() error {
		haltErr := dev.Halt()
		if err := bus.Close(); err != nil {
			return err
		}
		return haltErr
	}

	if err := d.dev.Draw(d.dev.Bounds(), splash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, nil
}

// NewDisplay wraps an already initialized panel.
func NewDisplay(dev Drawer, interval time.Duration) *Display {
	return &Display{dev: dev, interval: interval, now: time.Now}
}

func (d *Display) Write(s imu.Sample) error {
	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return nil
	}
	d.last = now
	return d.dev.Draw(d.dev.Bounds(), Render(s), image.Point{})
}

func (d *Display) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer()
	d.closer = nil
	return err
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// Render draws s as four 7x13 text lines.
func Render(s imu.Sample) *image1bit.VerticalLSB {
	img, drawer := newFrame()
	p := s.Pose()

	lines := []string{
		fmt.Sprintf("R%6.1f P%6.1f", p.Roll, p.Pitch),
		fmt.Sprintf("Y%6.1f T%5.1fC", p.Yaw, s.Temperature),
		fmt.Sprintf("A%5.2f%5.2f%5.2f", s.Ax, s.Ay, s.Az),
		fmt.Sprintf("G%5.0f%5.0f%5.0f", s.Wx, s.Wy, s.Wz),
	}
	for i, l := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(l)
	}
	return img
}

func splash() *image1bit.VerticalLSB {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("IMU logger")

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawString("Waiting for")

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawString("frames")

	return img
}
