// Package capture manages microphone recording sessions and the state machine
// that turns a finished recording into a stored memory.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionBusy     = errors.New("audio session busy")
	ErrStartFailed     = errors.New("failed to start recording")
	ErrNoActiveSession = errors.New("no active recording session")
)

const (
	meterInterval    = 100 * time.Millisecond
	durationInterval = time.Second

	// amplitudeFloorDB is the metering floor; power levels are rescaled from
	// [-60dB, 0dB] into a normalized [0,1] amplitude.
	amplitudeFloorDB = -60.0
)

// startDelays are the session-settle waits before each start attempt. The
// underlying audio session may still be releasing a prior recording, so the
// second attempt waits longer.
var startDelays = []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}

// Backend is the device-facing half of a recorder. One backend owns at most
// one running capture process at a time.
type Backend interface {
	// Start begins capturing into the destination file and returns once
	// capture is running.
	Start(ctx context.Context, destination string) error
	// Stop ends capture and flushes the destination file.
	Stop() error
	// PowerDB reports the most recent average input power in dBFS.
	PowerDB() float64
}

// PermissionProber is implemented by backends that can verify microphone
// access up front.
type PermissionProber interface {
	Probe(ctx context.Context) error
}

// Snapshot is a point-in-time view of the recorder for display.
type Snapshot struct {
	Recording bool
	Duration  time.Duration
	Amplitude float64
}

// Recorder owns a single exclusive recording session against the microphone
// backend. It writes into a scratch file and returns the complete payload on
// Stop.
type Recorder struct {
	backend    Backend
	scratchDir string

	mu          sync.Mutex
	recording   bool
	stopping    bool
	scratchPath string
	amplitude   float64
	duration    time.Duration
	permission  *bool
	meterStop   chan struct{}
}

// NewRecorder builds a recorder around the backend. Scratch recordings go to
// scratchDir, or the OS temp directory when empty.
func NewRecorder(backend Backend, scratchDir string) *Recorder {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Recorder{backend: backend, scratchDir: scratchDir}
}

// RequestPermission verifies microphone access. The result is cached, so
// repeated calls are cheap and idempotent.
func (r *Recorder) RequestPermission(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.permission != nil {
		return *r.permission
	}

	granted := true
	if prober, ok := r.backend.(PermissionProber); ok {
		granted = prober.Probe(ctx) == nil
	}
	r.permission = &granted
	return granted
}

// Start begins a new recording session. Any prior session is proactively torn
// down first. Because the audio session may still be settling, two attempts
// are made with increasing delays before surfacing ErrStartFailed.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopping {
		return ErrSessionBusy
	}
	if r.recording {
		r.teardownLocked()
	}

	var lastErr error
	for _, delay := range startDelays {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		destination := filepath.Join(r.scratchDir, uuid.NewString()+".wav")
		if err := r.backend.Start(ctx, destination); err != nil {
			lastErr = err
			continue
		}

		r.scratchPath = destination
		r.recording = true
		r.amplitude = 0
		r.duration = 0
		r.meterStop = make(chan struct{})
		go r.meterLoop(r.meterStop)
		return nil
	}

	return fmt.Errorf("%w: %w", ErrStartFailed, lastErr)
}

// Stop ends the session and returns the recorded payload read from scratch
// storage.
func (r *Recorder) Stop(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	r.stopping = true
	scratch := r.scratchPath
	r.stopMeterLocked()
	r.mu.Unlock()

	stopErr := r.backend.Stop()

	r.mu.Lock()
	r.recording = false
	r.stopping = false
	r.scratchPath = ""
	r.amplitude = 0
	r.duration = 0
	r.mu.Unlock()

	if stopErr != nil {
		_ = os.Remove(scratch)
		return nil, fmt.Errorf("stop recording: %w", stopErr)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(scratch)
		return nil, err
	}

	data, err := os.ReadFile(scratch)
	_ = os.Remove(scratch)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return data, nil
}

// Cancel tears the session down best-effort, discarding any recorded data.
// It never fails and is safe to call in any state.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
}

// Snapshot reports the current session state for display.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Recording: r.recording,
		Duration:  r.duration,
		Amplitude: r.amplitude,
	}
}

func (r *Recorder) teardownLocked() {
	r.stopMeterLocked()
	if r.recording {
		_ = r.backend.Stop()
	}
	if r.scratchPath != "" {
		_ = os.Remove(r.scratchPath)
	}
	r.recording = false
	r.stopping = false
	r.scratchPath = ""
	r.amplitude = 0
	r.duration = 0
}

func (r *Recorder) stopMeterLocked() {
	if r.meterStop != nil {
		close(r.meterStop)
		r.meterStop = nil
	}
}

func (r *Recorder) meterLoop(stop <-chan struct{}) {
	meter := time.NewTicker(meterInterval)
	defer meter.Stop()
	seconds := time.NewTicker(durationInterval)
	defer seconds.Stop()

	for {
		select {
		case <-stop:
			return
		case <-meter.C:
			amplitude := NormalizeAmplitude(r.backend.PowerDB())
			r.mu.Lock()
			if r.recording {
				r.amplitude = amplitude
			}
			r.mu.Unlock()
		case <-seconds.C:
			r.mu.Lock()
			if r.recording {
				r.duration += durationInterval
			}
			r.mu.Unlock()
		}
	}
}

// NormalizeAmplitude rescales an input power level from the [-60dB, 0dB]
// metering range into [0,1], clamped.
func NormalizeAmplitude(powerDB float64) float64 {
	normalized := (powerDB - amplitudeFloorDB) / -amplitudeFloorDB
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}
