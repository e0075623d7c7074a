// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// CSVHeader is the first line of every log file.
const CSVHeader = "time,ax,ay,az,wx,wy,wz,roll,pitch,yaw,T"

// Filename returns <dir>/<base>_YYYYMMDD_HHMMSS<ext> for t.
func Filename(dir, base, ext string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, t.Format("20060102_150405"), ext))
}

// CSV appends one line per sample and flushes after every line.
type CSV struct {
	w      *bufio.Writer
	closer io.Closer
	path   string
}

// CreateCSV creates a new timestamped log file under dir.
func CreateCSV(dir, base string, now time.Time) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := Filename(dir, base, ".csv", now)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	c, err := NewCSV(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.path = path
	return c, nil
}

// NewCSV writes the header to w and returns the sink. If w is an io.Closer it
// is closed by Close.
func NewCSV(w io.Writer) (*CSV, error) {
	c := &CSV{w: bufio.NewWriter(w)}
	if cl, ok := w.(io.Closer); ok {
		c.closer = cl
	}
	if _, err := c.w.WriteString(CSVHeader + "\n"); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return c, c.w.Flush()
}

// Path returns the file path, empty when not file backed.
func (c *CSV) Path() string { return c.path }

func (c *CSV) Write(s imu.Sample) error {
	b := appendUnixMicro(c.w.AvailableBuffer(), s.Time)
	for _, v := range [...]float64{s.Ax, s.Ay, s.Az, s.Wx, s.Wy, s.Wz, s.Roll, s.Pitch, s.Yaw, s.Temperature} {
		b = append(b, ',')
		b = strconv.AppendFloat(b, v, 'f', 3, 64)
	}
	b = append(b, '\n')
	if _, err := c.w.Write(b); err != nil {
		return err
	}
	return c.w.Flush()
}

// appendUnixMicro writes t as Unix seconds with six decimals, without going
// through float64.
func appendUnixMicro(b []byte, t time.Time) []byte {
	us := t.UnixMicro()
	if us < 0 {
		b = append(b, '-')
		us = -us
	}
	b = strconv.AppendInt(b, us/1e6, 10)
	frac := strconv.FormatInt(us%1e6+1e6, 10) // leading 1 keeps the zero padding
	b = append(b, '.')
	return append(b, frac[1:]...)
}

func (c *CSV) Close() error {
	err := c.w.Flush()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
		c.closer = nil
	}
	return err
}
