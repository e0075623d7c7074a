// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"fmt"
	"io"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// Console redraws a single terminal line with the latest sample.
type Console struct {
	w     io.Writer
	drawn bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Line formats s the way the console shows it, without the leading \r.
func Line(s imu.Sample) string {
	return fmt.Sprintf(
		"Time: %.2f | Ax: %.3f Ay: %.3f Az: %.3f | Wx: %.3f Wy: %.3f Wz: %.3f | Roll: %.3f Pitch: %.3f Yaw: %.3f | T: %.3f    ",
		s.Seconds(),
		s.Ax, s.Ay, s.Az,
		s.Wx, s.Wy, s.Wz,
		s.Roll, s.Pitch, s.Yaw,
		s.Temperature,
	)
}

func (c *Console) Write(s imu.Sample) error {
	c.drawn = true
	_, err := io.WriteString(c.w, "\r"+Line(s))
	return err
}

// Close moves the cursor off the status line.
func (c *Console) Close() error {
	if !c.drawn {
		return nil
	}
	_, err := io.WriteString(c.w, "\n")
	return err
}
