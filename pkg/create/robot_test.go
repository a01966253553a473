// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/wheelworks/createlink/pkg/oi"
)

// fakeTransport is a loopback Transport: writes are captured, reads are
// served from queued reply chunks, and an empty queue behaves like a read
// timeout.
type fakeTransport struct {
	mu      sync.Mutex
	written bytes.Buffer
	reads   [][]byte
	resets  int
	closed  bool
}

func (ft *fakeTransport) Read(p []byte) (int, error) {
	ft.mu.Lock()
	if len(ft.reads) == 0 {
		ft.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	chunk := ft.reads[0]
	n := copy(p, chunk)
	if n == len(chunk) {
		ft.reads = ft.reads[1:]
	} else {
		ft.reads[0] = chunk[n:]
	}
	ft.mu.Unlock()
	return n, nil
}

func (ft *fakeTransport) Write(p []byte) (int, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.written.Write(p)
}

func (ft *fakeTransport) Close() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.closed = true
	return nil
}

func (ft *fakeTransport) SetReadTimeout(time.Duration) error { return nil }
func (ft *fakeTransport) Drain() error                       { return nil }

// ResetInputBuffer only counts calls. Replies for later queries are queued
// ahead of time, so dropping them here would throw away test fixtures.
func (ft *fakeTransport) ResetInputBuffer() error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.resets++
	return nil
}

func (ft *fakeTransport) queue(chunks ...[]byte) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.reads = append(ft.reads, chunks...)
}

func (ft *fakeTransport) writtenBytes() []byte {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]byte{}, ft.written.Bytes()...)
}

func (ft *fakeTransport) clearWritten() {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.written.Reset()
}

func newTestRobot(t *testing.T, ft *fakeTransport, opts ...Option) *Robot {
	t.Helper()
	opts = append([]Option{
		WithLogger(golog.NewTestLogger(t)),
		WithSettleDelay(0),
	}, opts...)
	return NewRobot(ft, opts...)
}

func TestStart(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	want := []byte{
		oi.OpStart,
		oi.OpLowSideDrivers, 0, // outputs forced off on startup
		oi.OpDigitalOutputs, 0,
	}
	if !bytes.Equal(ft.writtenBytes(), want) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), want)
	}
	if r.Mode() != oi.ModePassive {
		t.Errorf("mode = %v, want passive", r.Mode())
	}
}

func TestStartWithMode(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	if err := r.Start(oi.ModeSafe); err != nil {
		t.Fatalf("Start: %v", err)
	}
	want := []byte{
		oi.OpStart,
		byte(oi.ModeSafe),
		oi.OpLowSideDrivers, 0,
		oi.OpDigitalOutputs, 0,
	}
	if !bytes.Equal(ft.writtenBytes(), want) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), want)
	}
	if r.Mode() != oi.ModeSafe {
		t.Errorf("mode = %v, want safe", r.Mode())
	}
}

func TestFullModeLightsPowerLed(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	if err := r.Full(); err != nil {
		t.Fatalf("Full: %v", err)
	}
	want := []byte{
		132,
		oi.OpLeds, 0, oi.LedGreen, oi.LedFull,
	}
	if !bytes.Equal(ft.writtenBytes(), want) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), want)
	}
	if r.Mode() != oi.ModeFull {
		t.Errorf("mode = %v, want full", r.Mode())
	}
}

func TestDriveValidation(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	err := r.Drive(600, oi.RadiusStraight)
	var rangeErr *oi.RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Drive(600) error = %v, want RangeError", err)
	}
	if len(ft.writtenBytes()) != 0 {
		t.Errorf("rejected drive still wrote % X", ft.writtenBytes())
	}
}

func TestDriveDistanceStopsOnTimer(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	// 300mm at 100mm/s: stop after 3s
	if err := r.DriveDistance(300, 100); err != nil {
		t.Fatalf("DriveDistance: %v", err)
	}
	wantDrive := []byte{oi.OpDrive, 0x00, 0x64, 0x80, 0x00}
	if !bytes.Equal(ft.writtenBytes(), wantDrive) {
		t.Fatalf("wrote % X, want % X", ft.writtenBytes(), wantDrive)
	}

	mock.Add(2 * time.Second)
	select {
	case <-r.MoveDone():
		t.Fatal("move finished early")
	default:
	}

	mock.Add(time.Second)
	select {
	case <-r.MoveDone():
	case <-time.After(time.Second):
		t.Fatal("move never finished")
	}
	if !bytes.HasSuffix(ft.writtenBytes(), []byte{oi.OpDriveDirect, 0, 0, 0, 0}) {
		t.Errorf("no stop written: % X", ft.writtenBytes())
	}
}

func TestDriveDistanceBackward(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	if err := r.DriveDistance(-300, 100); err != nil {
		t.Fatalf("DriveDistance: %v", err)
	}
	wantDrive := []byte{oi.OpDrive, 0xFF, 0x9C, 0x80, 0x00}
	if !bytes.Equal(ft.writtenBytes(), wantDrive) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), wantDrive)
	}

	if err := r.DriveDistance(100, 0); err == nil {
		t.Error("zero speed accepted")
	}
}

func TestNewMoveReplacesPendingStop(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	if err := r.DriveDistance(300, 100); err != nil { // eta 3s
		t.Fatalf("first move: %v", err)
	}
	if err := r.DriveDistance(500, 100); err != nil { // eta 5s
		t.Fatalf("second move: %v", err)
	}
	ft.clearWritten()

	// cancelling the first move fires its completion immediately so a
	// waiter is released, not left hanging until the second ETA
	select {
	case <-r.MoveDone():
	default:
		t.Fatal("replaced move never signaled completion")
	}

	// past the first ETA: the replaced timer must not stop the new move
	mock.Add(3 * time.Second)
	if bytes.Contains(ft.writtenBytes(), []byte{oi.OpDriveDirect, 0, 0, 0, 0}) {
		t.Fatal("stale timer stopped the new move")
	}
	select {
	case <-r.MoveDone():
		t.Fatal("stale timer signaled completion")
	default:
	}

	mock.Add(2 * time.Second)
	select {
	case <-r.MoveDone():
	case <-time.After(time.Second):
		t.Fatal("new move never finished")
	}
}

func TestUntimedDriveCancelsPendingStop(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	if err := r.DriveDistance(300, 100); err != nil { // eta 3s
		t.Fatalf("DriveDistance: %v", err)
	}
	if err := r.Drive(200, oi.RadiusStraight); err != nil {
		t.Fatalf("Drive: %v", err)
	}
	select {
	case <-r.MoveDone():
	default:
		t.Fatal("cancelled move never signaled completion")
	}

	// the old ETA must not stop the untimed move
	ft.clearWritten()
	mock.Add(5 * time.Second)
	if bytes.Contains(ft.writtenBytes(), []byte{oi.OpDriveDirect, 0, 0, 0, 0}) {
		t.Fatal("stale timer stopped the untimed move")
	}

	if err := r.SpinAngle(90, 200); err != nil { // eta ~0.5s
		t.Fatalf("SpinAngle: %v", err)
	}
	if err := r.Spin(100); err != nil {
		t.Fatalf("Spin: %v", err)
	}
	select {
	case <-r.MoveDone():
	default:
		t.Fatal("cancelled spin never signaled completion")
	}
	ft.clearWritten()
	mock.Add(5 * time.Second)
	if len(ft.writtenBytes()) != 0 {
		t.Errorf("stale spin timer wrote % X", ft.writtenBytes())
	}
}

func TestZeroDistanceMoveIsNoop(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	if err := r.DriveDistance(0, 100); err != nil {
		t.Fatalf("DriveDistance(0): %v", err)
	}
	if err := r.SpinAngle(0, 100); err != nil {
		t.Fatalf("SpinAngle(0): %v", err)
	}
	if len(ft.writtenBytes()) != 0 {
		t.Errorf("zero-length move wrote % X", ft.writtenBytes())
	}
	mock.Add(time.Second)
	if len(ft.writtenBytes()) != 0 {
		t.Errorf("zero-length move scheduled a stop: % X", ft.writtenBytes())
	}
}

func TestSpinAngle(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	if err := r.SpinAngle(90, 100); err != nil {
		t.Fatalf("SpinAngle: %v", err)
	}
	// counter-clockwise: radius 1
	wantDrive := []byte{oi.OpDrive, 0x00, 0x64, 0x00, 0x01}
	if !bytes.Equal(ft.writtenBytes(), wantDrive) {
		t.Fatalf("wrote % X, want % X", ft.writtenBytes(), wantDrive)
	}

	// quarter turn at 100mm/s on a 260mm wheel span is ~2.04s
	mock.Add(2500 * time.Millisecond)
	select {
	case <-r.MoveDone():
	case <-time.After(time.Second):
		t.Fatal("spin never finished")
	}
}

func TestWaitMove(t *testing.T) {
	ft := &fakeTransport{}
	mock := clock.NewMock()
	r := newTestRobot(t, ft, WithClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.WaitMove(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitMove on cancelled ctx = %v", err)
	}

	if err := r.DriveDistance(100, 100); err != nil {
		t.Fatalf("DriveDistance: %v", err)
	}
	mock.Add(time.Second)
	if err := r.WaitMove(context.Background()); err != nil {
		t.Errorf("WaitMove: %v", err)
	}
}

func TestGetSensorPacket(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	ft.queue([]byte{0xFE, 0xD4})
	data, err := r.GetSensorPacket(oi.PacketDistance)
	if err != nil {
		t.Fatalf("GetSensorPacket: %v", err)
	}
	if !bytes.Equal(data, []byte{0xFE, 0xD4}) {
		t.Errorf("payload = % X", data)
	}
	if !bytes.Equal(ft.writtenBytes(), []byte{oi.OpReadSensors, 19}) {
		t.Errorf("wrote % X", ft.writtenBytes())
	}
	if ft.resets != 1 {
		t.Errorf("input buffer resets = %d, want 1", ft.resets)
	}
}

func TestGetSensorPacketShortReply(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft, WithReadTimeout(5*time.Millisecond))

	ft.queue([]byte{0xFE})
	data, err := r.GetSensorPacket(oi.PacketDistance)
	var timeoutErr *oi.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	if timeoutErr.Want != 2 || timeoutErr.Got != 1 {
		t.Errorf("TimeoutError = %+v", timeoutErr)
	}
	if !bytes.Equal(data, []byte{0xFE}) {
		t.Errorf("partial payload = % X", data)
	}
}

func TestGetSensorList(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	// buttons (1 byte) then distance (2 bytes), split across reads
	ft.queue([]byte{0x01}, []byte{0x01, 0x2C})
	payloads, err := r.GetSensorList(oi.PacketButtons, oi.PacketDistance)
	if err != nil {
		t.Fatalf("GetSensorList: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2", len(payloads))
	}
	if !bytes.Equal(payloads[0], []byte{0x01}) || !bytes.Equal(payloads[1], []byte{0x01, 0x2C}) {
		t.Errorf("payloads = % X", payloads)
	}
	if !bytes.Equal(ft.writtenBytes(), []byte{oi.OpReadSensorList, 2, 18, 19}) {
		t.Errorf("wrote % X", ft.writtenBytes())
	}
}

func TestGetScalarAndProjections(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	ft.queue([]byte{byte(oi.BumperLeft) | byte(oi.WheelDropRight)})
	bumpers, err := r.GetBumpers()
	if err != nil {
		t.Fatalf("GetBumpers: %v", err)
	}
	if len(bumpers) != 1 || bumpers[0] != oi.BumperLeft {
		t.Errorf("bumpers = %v", bumpers)
	}

	ft.queue([]byte{byte(oi.ButtonPlay)})
	buttons, err := r.GetButtons()
	if err != nil {
		t.Fatalf("GetButtons: %v", err)
	}
	if len(buttons) != 1 || buttons[0] != oi.ButtonPlay {
		t.Errorf("buttons = %v", buttons)
	}
}

func TestSetLedsMergesState(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	if err := r.SetLeds(LedUpdate{Play: ptr(true)}); err != nil {
		t.Fatalf("SetLeds: %v", err)
	}
	if err := r.SetLeds(LedUpdate{PowerColor: ptr(oi.LedGreen), PowerLevel: ptr(oi.LedFull)}); err != nil {
		t.Fatalf("SetLeds: %v", err)
	}
	want := []byte{
		oi.OpLeds, oi.LedPlay, 0, 0,
		oi.OpLeds, oi.LedPlay, oi.LedGreen, oi.LedFull, // play LED survives the merge
	}
	if !bytes.Equal(ft.writtenBytes(), want) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), want)
	}
}

func TestSetDriverPWMKeepsOtherChannels(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	if err := r.SetDriverPWM(oi.Driver0, 100); err != nil {
		t.Fatalf("SetDriverPWM: %v", err)
	}
	if err := r.SetDriverPWM(oi.Driver2, 50); err != nil {
		t.Fatalf("SetDriverPWM: %v", err)
	}
	want := []byte{
		oi.OpPWMLowSideDrivers, 0, 0, 128,
		oi.OpPWMLowSideDrivers, 64, 0, 128, // driver 0 keeps its duty
	}
	if !bytes.Equal(ft.writtenBytes(), want) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), want)
	}

	if err := r.SetDriverPWM(oi.Driver1, 101); err == nil {
		t.Error("out-of-range duty accepted")
	}
}

func TestSongRoundTrip(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	var song oi.Song
	if err := song.Encode([]oi.Note{
		{Name: "C", Octave: 4, Duration: 16},
		{Name: "E", Octave: 4, Duration: 16},
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := r.SongRecord(2, &song); err != nil {
		t.Fatalf("SongRecord: %v", err)
	}
	want := []byte{oi.OpSongRecord, 2, 2, 72, 16, 76, 16}
	if !bytes.Equal(ft.writtenBytes(), want) {
		t.Errorf("wrote % X, want % X", ft.writtenBytes(), want)
	}
}

func TestSongSequenceRecord(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	var song oi.Song
	for i := 0; i < 40; i++ {
		if err := song.AddNote("C", 4, 8); err != nil {
			t.Fatal(err)
		}
	}

	slots, err := r.SongSequenceRecord(1, &song)
	if err != nil {
		t.Fatalf("SongSequenceRecord: %v", err)
	}
	if len(slots) != 3 || slots[0] != 1 || slots[2] != 3 {
		t.Errorf("slots = %v, want [1 2 3]", slots)
	}

	if _, err := r.SongSequenceRecord(14, &song); err == nil {
		t.Error("overflow past slot 15 accepted")
	}
}

func TestSongPlaySync(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft, WithReadTimeout(5*time.Millisecond))

	// two polls: still playing, then done
	ft.queue([]byte{1}, []byte{0})
	if err := r.SongPlaySync(context.Background(), 0); err != nil {
		t.Fatalf("SongPlaySync: %v", err)
	}

	written := ft.writtenBytes()
	if !bytes.HasPrefix(written, []byte{oi.OpSongPlay, 0}) {
		t.Errorf("wrote % X", written)
	}
	if n := bytes.Count(written, []byte{oi.OpReadSensors, 37}); n != 2 {
		t.Errorf("song-playing polled %d times, want 2", n)
	}
}

func TestGetScript(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	s := oi.NewScript(oi.WaitTime(10), oi.StopMove())
	if err := r.DefineScript(s); err != nil {
		t.Fatalf("DefineScript: %v", err)
	}
	ft.clearWritten()

	body := s.Bytes()
	ft.queue(append([]byte{byte(len(body))}, body...))
	cmds, err := r.GetScript()
	if err != nil {
		t.Fatalf("GetScript: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want 2", len(cmds))
	}
	if !bytes.Equal(ft.writtenBytes(), []byte{oi.OpScriptShow}) {
		t.Errorf("wrote % X", ft.writtenBytes())
	}
}

func TestCloseStopsAndCloses(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ft.closed {
		t.Error("transport not closed")
	}
	want := []byte{
		oi.OpDriveDirect, 0, 0, 0, 0,
		oi.OpLowSideDrivers, 0, // outputs forced off on shutdown
		oi.OpDigitalOutputs, 0,
	}
	if !bytes.HasSuffix(ft.writtenBytes(), want) {
		t.Errorf("shutdown wrote % X, want suffix % X", ft.writtenBytes(), want)
	}
}

func TestResetShutsDownStream(t *testing.T) {
	ft := &fakeTransport{}
	r := newTestRobot(t, ft)
	defer r.Close()

	if err := r.StreamPackets(oi.PacketWall); err != nil {
		t.Fatalf("StreamPackets: %v", err)
	}
	frames := r.Frames()

	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	select {
	case _, ok := <-frames:
		if ok {
			t.Error("unexpected frame during reset")
		}
	default:
		t.Error("frames channel still open after reset")
	}
	if r.Streaming() {
		t.Error("Streaming() = true after reset")
	}
	written := ft.writtenBytes()
	if !bytes.Contains(written, []byte{oi.OpStreamPauseResume, 0}) {
		t.Errorf("stream never paused before reset: % X", written)
	}
	if !bytes.Contains(written, []byte{oi.OpSoftReset}) {
		t.Errorf("no reset written: % X", written)
	}
}
