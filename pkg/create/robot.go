// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/wheelworks/createlink/pkg/oi"
)

const (
	// DefaultReadTimeout bounds each synchronous sensor reply.
	DefaultReadTimeout = 100 * time.Millisecond

	// wheelSpanMM is the distance between the drive wheels. It converts a
	// spin rate into an angular rate for timed turns.
	wheelSpanMM = 260

	// commandSettle is how long the robot needs after a mode change before
	// it accepts the next command.
	commandSettle = 200 * time.Millisecond

	// songPollInterval paces the song-playing flag polls during
	// synchronous playback.
	songPollInterval = 10 * time.Millisecond
)

// Option configures a Robot.
type Option func(*Robot)

// WithLogger replaces the default logger.
func WithLogger(logger golog.Logger) Option {
	return func(r *Robot) { r.logger = logger }
}

// WithClock replaces the wall clock. Tests install a mock to drive move
// timers and playback polls deterministically.
func WithClock(clk clock.Clock) Option {
	return func(r *Robot) { r.clk = clk }
}

// WithReadTimeout changes the synchronous reply timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(r *Robot) { r.readTimeout = d }
}

// WithSettleDelay changes how long the driver waits after opening the
// interface or switching modes. Loopback transports can set it to zero.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Robot) { r.settle = d }
}

// Robot is a driver for one robot on one transport. All methods are safe
// for concurrent use; writes and synchronous queries are serialized on an
// internal lock.
type Robot struct {
	mu sync.Mutex
	tr Transport

	logger      golog.Logger
	clk         clock.Clock
	readTimeout time.Duration
	settle      time.Duration

	mode oi.Mode
	leds ledState
	pwm  [3]int

	streaming  bool
	listening  bool
	stopStream chan struct{}
	streamDone chan struct{}
	frames     chan *oi.StreamFrame
	stats      *oi.Statistics

	moveMu    sync.Mutex
	moveTimer *clock.Timer
	moveDone  chan struct{}

	cancelCtx context.Context
	cancel    context.CancelFunc
	workers   sync.WaitGroup
}

type ledState struct {
	bits       byte
	powerColor byte
	powerLevel byte
}

// NewRobot wraps a transport in a driver. The robot is not touched until
// Start is called.
func NewRobot(tr Transport, opts ...Option) *Robot {
	cancelCtx, cancel := context.WithCancel(context.Background())
	r := &Robot{
		tr:          tr,
		logger:      golog.NewLogger("create"),
		clk:         clock.New(),
		readTimeout: DefaultReadTimeout,
		settle:      commandSettle,
		stats:       oi.NewStatistics(),
		moveDone:    make(chan struct{}, 1),
		cancelCtx:   cancelCtx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start opens the command interface, leaving the robot in passive mode or
// the optionally given mode, and forces the low-side drivers and digital
// outputs off so peripherals from an earlier session cannot keep running.
func (r *Robot) Start(mode ...oi.Mode) error {
	if err := r.send(oi.Start()); err != nil {
		return err
	}
	r.clk.Sleep(r.settle)
	r.mu.Lock()
	r.mode = oi.ModePassive
	r.mu.Unlock()
	if len(mode) > 0 && mode[0] != oi.ModePassive {
		if err := r.SetMode(mode[0]); err != nil {
			return err
		}
	}
	if err := r.forceOutputsOff(); err != nil {
		return err
	}
	r.logger.Debug("opened command interface")
	return nil
}

// Reset shuts the stream down, soft-reboots the robot and reopens the
// command interface. Sensor stream and song state on the robot do not
// survive a reset.
func (r *Robot) Reset() error {
	r.StreamShutdown()
	if err := r.send(oi.Reset()); err != nil {
		return err
	}
	r.clk.Sleep(15 * r.settle)
	return r.Start()
}

// Close stops any motion, forces outputs off, stops background work and
// closes the transport.
func (r *Robot) Close() error {
	r.StreamShutdown()
	r.cancelMoveTimer()
	if err := r.send(oi.StopMove()); err != nil {
		r.logger.Debugw("stop on close failed", "error", err)
	}
	if err := r.forceOutputsOff(); err != nil {
		r.logger.Debugw("outputs off on close failed", "error", err)
	}
	r.cancel()
	r.workers.Wait()
	return r.tr.Close()
}

// forceOutputsOff switches all low-side drivers and digital outputs off
// and resets the cached duty cycles to match.
func (r *Robot) forceOutputsOff() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pwm = [3]int{}
	return r.sendLocked(oi.LowSideDrivers(0), oi.DigitalOutputs(0))
}

// send writes commands back to back under the transport lock.
func (r *Robot) send(cmds ...oi.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sendLocked(cmds...)
}

func (r *Robot) sendLocked(cmds ...oi.Command) error {
	for _, cmd := range cmds {
		if _, err := r.tr.Write(cmd); err != nil {
			return err
		}
	}
	return r.tr.Drain()
}

// Mode returns the last mode this driver put the robot in. It is not read
// back from the robot; use GetScalar(oi.PacketOIMode) for ground truth.
func (r *Robot) Mode() oi.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode switches the operating mode and settles before returning.
func (r *Robot) SetMode(m oi.Mode) error {
	cmd, err := oi.SetMode(m)
	if err != nil {
		return err
	}
	if err := r.send(cmd); err != nil {
		return err
	}
	r.clk.Sleep(r.settle)
	r.mu.Lock()
	r.mode = m
	r.mu.Unlock()
	r.logger.Debugw("mode changed", "mode", m.String())
	return nil
}

// Passive returns the robot to passive mode.
func (r *Robot) Passive() error { return r.SetMode(oi.ModePassive) }

// Safe puts the robot in safe mode.
func (r *Robot) Safe() error { return r.SetMode(oi.ModeSafe) }

// Full puts the robot in full mode and lights the power LED as a visible
// warning that the safety reflexes are off.
func (r *Robot) Full() error {
	if err := r.SetMode(oi.ModeFull); err != nil {
		return err
	}
	return r.SetLeds(LedUpdate{PowerColor: ptr(oi.LedGreen), PowerLevel: ptr(oi.LedFull)})
}

// Drive sets a velocity (mm/s) and turn radius (mm). Use
// oi.RadiusStraight, oi.SpinCW and oi.SpinCCW for the special radii. Any
// pending timed move is cancelled first so its timer cannot cut this move
// short.
func (r *Robot) Drive(velocity, radius int16) error {
	cmd, err := oi.Drive(velocity, radius)
	if err != nil {
		return err
	}
	r.cancelMoveTimer()
	return r.send(cmd)
}

// DriveDirect sets the two wheel velocities (mm/s) independently,
// cancelling any pending timed move.
func (r *Robot) DriveDirect(leftVel, rightVel int16) error {
	r.cancelMoveTimer()
	return r.send(oi.DriveDirect(leftVel, rightVel))
}

// Stop halts the wheels immediately and cancels any pending timed move.
func (r *Robot) Stop() error {
	r.cancelMoveTimer()
	return r.send(oi.StopMove())
}

// DriveDistance drives straight for the given distance (mm, sign sets the
// direction) at the given speed, stopping on a dead-reckoned timer. The
// stop is signaled on MoveDone.
func (r *Robot) DriveDistance(distanceMM int, speed int16) error {
	if speed <= 0 {
		return &oi.RangeError{What: "speed", Value: int(speed), Min: 1, Max: oi.MaxAbsoluteSpeed}
	}
	if distanceMM == 0 {
		return nil
	}
	velocity := speed
	if distanceMM < 0 {
		velocity = -speed
		distanceMM = -distanceMM
	}
	cmd, err := oi.Drive(velocity, oi.RadiusStraight)
	if err != nil {
		return err
	}
	eta := time.Duration(float64(distanceMM) / float64(speed) * float64(time.Second))
	r.cancelMoveTimer()
	if err := r.send(cmd); err != nil {
		return err
	}
	r.scheduleStop(eta)
	return nil
}

// Spin turns in place, cancelling any pending timed move. Positive
// velocity spins counter-clockwise, matching the robot's positive angle
// convention.
func (r *Robot) Spin(velocity int16) error {
	radius := int16(oi.SpinCCW)
	if velocity < 0 {
		radius = oi.SpinCW
		velocity = -velocity
	}
	cmd, err := oi.Drive(velocity, radius)
	if err != nil {
		return err
	}
	r.cancelMoveTimer()
	return r.send(cmd)
}

// SpinAngle turns in place through the given angle (degrees, positive
// counter-clockwise) at the given wheel speed, stopping on a dead-reckoned
// timer. The stop is signaled on MoveDone.
func (r *Robot) SpinAngle(degrees int, speed int16) error {
	if speed <= 0 {
		return &oi.RangeError{What: "speed", Value: int(speed), Min: 1, Max: oi.MaxAbsoluteSpeed}
	}
	if degrees == 0 {
		return nil
	}
	velocity := speed
	if degrees < 0 {
		velocity = -speed
		degrees = -degrees
	}
	if err := r.Spin(velocity); err != nil {
		return err
	}
	// arc length each wheel travels for the requested rotation
	arcMM := float64(degrees) / 360 * math.Pi * wheelSpanMM
	eta := time.Duration(arcMM / float64(speed) * float64(time.Second))
	r.scheduleStop(eta)
	return nil
}

// MoveDone reports completion of timed moves. The channel holds at most
// one pending signal; a new timed move re-arms it.
func (r *Robot) MoveDone() <-chan struct{} {
	return r.moveDone
}

// WaitMove blocks until the pending timed move finishes or the context is
// done.
func (r *Robot) WaitMove(ctx context.Context) error {
	select {
	case <-r.moveDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// scheduleStop arms the move timer, replacing any earlier one. The stale
// timer is cancelled before the new one is armed so an old ETA can never
// cut a newer move short; cancellation fires the old move's completion.
func (r *Robot) scheduleStop(eta time.Duration) {
	r.moveMu.Lock()
	defer r.moveMu.Unlock()
	r.cancelMoveTimerLocked()
	r.moveTimer = r.clk.AfterFunc(eta, func() {
		if err := r.send(oi.StopMove()); err != nil {
			r.logger.Errorw("timed stop failed", "error", err)
		}
		r.signalMoveDone()
	})
}

// cancelMoveTimer disarms a pending move timer. If one was still armed,
// its completion is signaled so a waiter is released rather than left
// hanging on a move that will never stop on its own.
func (r *Robot) cancelMoveTimer() {
	r.moveMu.Lock()
	defer r.moveMu.Unlock()
	r.cancelMoveTimerLocked()
}

func (r *Robot) cancelMoveTimerLocked() {
	if r.moveTimer == nil {
		return
	}
	if r.moveTimer.Stop() {
		r.signalMoveDone()
	}
	r.moveTimer = nil
}

func (r *Robot) signalMoveDone() {
	select {
	case r.moveDone <- struct{}{}:
	default:
	}
}

// LedUpdate is a partial LED change; nil fields keep their current value.
type LedUpdate struct {
	Play       *bool
	Advance    *bool
	PowerColor *byte // 0 green .. 255 red
	PowerLevel *byte // 0 off .. 255 full
}

func ptr[T any](v T) *T { return &v }

// SetLeds applies a partial LED update, merging it with the previous LED
// state so callers can flip one LED without knowing the rest.
func (r *Robot) SetLeds(u LedUpdate) error {
	r.mu.Lock()
	if u.Play != nil {
		if *u.Play {
			r.leds.bits |= oi.LedPlay
		} else {
			r.leds.bits &^= oi.LedPlay
		}
	}
	if u.Advance != nil {
		if *u.Advance {
			r.leds.bits |= oi.LedAdvance
		} else {
			r.leds.bits &^= oi.LedAdvance
		}
	}
	if u.PowerColor != nil {
		r.leds.powerColor = *u.PowerColor
	}
	if u.PowerLevel != nil {
		r.leds.powerLevel = *u.PowerLevel
	}
	cmd := oi.Leds(r.leds.bits, r.leds.powerColor, r.leds.powerLevel)
	err := r.sendLocked(cmd)
	r.mu.Unlock()
	return err
}

// SetDigitalOuts drives the three cargo bay digital output pins from the
// low three bits of states.
func (r *Robot) SetDigitalOuts(states byte) error {
	return r.send(oi.DigitalOutputs(states))
}

// SetLowSideDrivers switches the three low-side drivers fully on or off
// from the low three bits of states. Any duty cycles set earlier with
// SetDriverPWM are overridden, so the cached duties are reset too.
func (r *Robot) SetLowSideDrivers(states byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pwm {
		if states&(1<<i) != 0 {
			r.pwm[i] = 100
		} else {
			r.pwm[i] = 0
		}
	}
	return r.sendLocked(oi.LowSideDrivers(states))
}

// SetDriverPWM sets one low-side driver's duty cycle (0-100 percent),
// keeping the other two at their cached values.
func (r *Robot) SetDriverPWM(driver oi.Driver, duty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	duties := r.pwm
	switch driver {
	case oi.Driver0:
		duties[0] = duty
	case oi.Driver1:
		duties[1] = duty
	case oi.Driver2:
		duties[2] = duty
	default:
		return &oi.RangeError{What: "low-side driver", Value: int(driver), Min: int(oi.Driver0), Max: int(oi.Driver2)}
	}
	cmd, err := oi.LowSideDriverPWM(duties[0], duties[1], duties[2])
	if err != nil {
		return err
	}
	if err := r.sendLocked(cmd); err != nil {
		return err
	}
	r.pwm = duties
	return nil
}

// SendIR transmits one byte through an IR LED wired to low-side driver 1.
func (r *Robot) SendIR(data byte) error {
	return r.send(oi.SendIR(data))
}
