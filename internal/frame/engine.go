// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/imu_logger/internal/imu"
)

// Source supplies raw bytes from the sensor link. A read may return fewer
// bytes than requested, or none at all once its bounded wait expires; only a
// non-nil error ends the stream.
type Source interface {
	Read(p []byte) (int, error)
}

// State is the synchronizer state.
type State int

const (
	StateFilling    State = iota // buffer not yet holding a whole block
	StateAligning                // full but headers misplaced: shift one byte and refill
	StateValidating              // headers aligned, checksums pending
	StateEmit                    // block valid, sample ready to assemble
)

func (s State) String() string {
	switch s {
	case StateFilling:
		return "FILLING"
	case StateAligning:
		return "ALIGNING"
	case StateValidating:
		return "VALIDATING"
	case StateEmit:
		return "EMIT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Counters is a point-in-time copy of the engine diagnostics.
type Counters struct {
	BytesRead             uint64
	Samples               uint64
	Shifts                uint64
	ChecksumFailures      uint64
	ResyncWarnings        uint64
	IdleWarnings          uint64
	TemperatureMismatches uint64
}

type counters struct {
	bytesRead             atomic.Uint64
	samples               atomic.Uint64
	shifts                atomic.Uint64
	checksumFailures      atomic.Uint64
	resyncWarnings        atomic.Uint64
	idleWarnings          atomic.Uint64
	temperatureMismatches atomic.Uint64
}

// Engine pulls bytes from a Source and turns them into samples. It is not
// safe for concurrent use, except for Stats which may be called from any
// goroutine.
type Engine struct {
	src Source

	buf   Block
	fill  int
	state State
	stamp time.Time

	shifts    int // since the last successful alignment
	maxShifts int

	idleReads    int // consecutive reads that returned no data
	maxIdleReads int

	now    func() time.Time
	logger *log.Logger
	debug  bool

	stats counters
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxShifts sets how many single-byte shifts are tolerated before a
// stale-link warning is logged. Values below 1 keep the default.
func WithMaxShifts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxShifts = n
		}
	}
}

// WithMaxIdleReads sets how many consecutive empty reads are tolerated before
// a dead-link warning is logged. Values below 1 keep the default.
func WithMaxIdleReads(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIdleReads = n
		}
	}
}

// WithClock replaces time.Now for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithDebug enables per-block debug logging.
func WithDebug(on bool) Option {
	return func(e *Engine) {
		e.debug = on
	}
}

// NewEngine returns an engine in StateFilling with an empty buffer.
func NewEngine(src Source, options ...Option) *Engine {
	e := &Engine{
		src:          src,
		state:        StateFilling,
		maxShifts:    DefaultMaxShifts,
		maxIdleReads: DefaultMaxIdleReads,
		now:          time.Now,
		logger:       log.Default(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// State returns the current synchronizer state.
func (e *Engine) State() State { return e.state }

// Buffered returns the number of bytes currently held in the window.
func (e *Engine) Buffered() int { return e.fill }

// Stats returns a copy of the diagnostic counters.
func (e *Engine) Stats() Counters {
	return Counters{
		BytesRead:             e.stats.bytesRead.Load(),
		Samples:               e.stats.samples.Load(),
		Shifts:                e.stats.shifts.Load(),
		ChecksumFailures:      e.stats.checksumFailures.Load(),
		ResyncWarnings:        e.stats.resyncWarnings.Load(),
		IdleWarnings:          e.stats.idleWarnings.Load(),
		TemperatureMismatches: e.stats.temperatureMismatches.Load(),
	}
}

// Next runs the state machine until a sample is emitted, the context is
// cancelled or the source fails.
func (e *Engine) Next(ctx context.Context) (imu.Sample, error) {
	for {
		if err := ctx.Err(); err != nil {
			return imu.Sample{}, err
		}
		s, ok, err := e.Step()
		if err != nil {
			return imu.Sample{}, err
		}
		if ok {
			return s, nil
		}
	}
}

// Step performs one state transition. It returns a sample and true only on
// leaving StateEmit. The returned error is always a transport error.
func (e *Engine) Step() (imu.Sample, bool, error) {
	switch e.state {
	case StateFilling:
		n, err := e.read(e.buf[e.fill:])
		if err != nil {
			return imu.Sample{}, false, err
		}
		e.fill += n
		if e.fill == BlockSize {
			e.checkAlignment()
		}

	case StateAligning:
		if e.fill == BlockSize {
			e.shift()
		}
		n, err := e.read(e.buf[e.fill : e.fill+1])
		if err != nil {
			return imu.Sample{}, false, err
		}
		e.fill += n
		if e.fill == BlockSize {
			e.checkAlignment()
		}

	case StateValidating:
		if !e.buf.Valid() {
			e.stats.checksumFailures.Add(1)
			if e.debug {
				e.logger.Printf("frame: checksum failure, discarding block % X", e.buf[:])
			}
			e.reset()
			break
		}
		e.stamp = e.now()
		e.state = StateEmit

	case StateEmit:
		s, err := Assemble(&e.buf, e.stamp)
		if !e.buf.TemperaturesAgree() {
			e.stats.temperatureMismatches.Add(1)
			if e.debug {
				e.logger.Printf("frame: temperature fields disagree in block % X", e.buf[:])
			}
		}
		e.reset()
		if err != nil {
			e.logger.Printf("frame: dropping block: %v", err)
			break
		}
		e.stats.samples.Add(1)
		return s, true, nil
	}

	return imu.Sample{}, false, nil
}

func (e *Engine) read(p []byte) (int, error) {
	n, err := e.src.Read(p)
	if err != nil {
		return n, fmt.Errorf("frame: read source: %w", err)
	}
	if n > 0 {
		e.stats.bytesRead.Add(uint64(n))
		e.idleReads = 0
		return n, nil
	}

	e.idleReads++
	if e.idleReads >= e.maxIdleReads {
		e.stats.idleWarnings.Add(1)
		e.logger.Printf("frame: WARNING: no data for %d reads, link may be dead", e.idleReads)
		e.idleReads = 0
	}
	return 0, nil
}

func (e *Engine) checkAlignment() {
	if e.buf.Aligned() {
		e.shifts = 0
		e.state = StateValidating
		return
	}
	e.state = StateAligning
}

// shift drops the oldest byte of a full window.
func (e *Engine) shift() {
	copy(e.buf[:], e.buf[1:])
	e.fill--
	e.shifts++
	e.stats.shifts.Add(1)
	if e.shifts > e.maxShifts {
		e.stats.resyncWarnings.Add(1)
		e.logger.Printf("frame: WARNING: no block alignment after %d bytes, link may be stale or noisy", e.shifts)
		e.shifts = 0
	}
}

func (e *Engine) reset() {
	e.fill = 0
	e.state = StateFilling
}
