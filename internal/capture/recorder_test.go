package capture

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
)

type fakeBackend struct {
	mu         sync.Mutex
	startErrs  []error
	startCalls int
	stopCalls  int
	probeErr   error
	probeCalls int
	powerDB    float64
	payload    []byte
}

func (b *fakeBackend) Start(_ context.Context, destination string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	attempt := b.startCalls
	b.startCalls++
	if attempt < len(b.startErrs) && b.startErrs[attempt] != nil {
		return b.startErrs[attempt]
	}
	return os.WriteFile(destination, b.payload, 0o644)
}

func (b *fakeBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopCalls++
	return nil
}

func (b *fakeBackend) PowerDB() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.powerDB
}

func (b *fakeBackend) Probe(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeCalls++
	return b.probeErr
}

func TestStartRetriesAfterSessionSettle(t *testing.T) {
	backend := &fakeBackend{
		startErrs: []error{errors.New("session not yet settled")},
		payload:   []byte("audio"),
	}
	rec := NewRecorder(backend, t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("expected second attempt to succeed: %v", err)
	}
	defer rec.Cancel()
	if backend.startCalls != 2 {
		t.Fatalf("expected 2 start attempts, got %d", backend.startCalls)
	}
	if !rec.Snapshot().Recording {
		t.Fatal("recorder should report recording")
	}
}

func TestStartFailsAfterBothAttempts(t *testing.T) {
	backend := &fakeBackend{
		startErrs: []error{errors.New("device busy"), errors.New("device busy")},
	}
	rec := NewRecorder(backend, t.TempDir())

	err := rec.Start(context.Background())
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("expected ErrStartFailed, got %v", err)
	}
	if backend.startCalls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", backend.startCalls)
	}
}

func TestStopReturnsScratchPayload(t *testing.T) {
	backend := &fakeBackend{payload: []byte("recorded bytes")}
	rec := NewRecorder(backend, t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	data, err := rec.Stop(context.Background())
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if string(data) != "recorded bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
	if backend.stopCalls != 1 {
		t.Fatalf("expected one backend stop, got %d", backend.stopCalls)
	}

	if _, err := rec.Stop(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession on second stop, got %v", err)
	}
}

func TestStartTearsDownPriorSession(t *testing.T) {
	backend := &fakeBackend{payload: []byte("x")}
	rec := NewRecorder(backend, t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	defer rec.Cancel()

	if backend.stopCalls != 1 {
		t.Fatalf("expected the prior session to be stopped, got %d stops", backend.stopCalls)
	}
}

func TestCancelDiscardsSession(t *testing.T) {
	backend := &fakeBackend{payload: []byte("x")}
	rec := NewRecorder(backend, t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	rec.Cancel()

	if _, err := rec.Stop(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession after cancel, got %v", err)
	}
	if snap := rec.Snapshot(); snap.Recording || snap.Amplitude != 0 || snap.Duration != 0 {
		t.Fatalf("expected reset snapshot, got %+v", snap)
	}

	// Cancel is best-effort in any state.
	rec.Cancel()
}

func TestStopOnCancelledContextRemovesScratch(t *testing.T) {
	backend := &fakeBackend{payload: []byte("partial audio")}
	rec := NewRecorder(backend, t.TempDir())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	rec.mu.Lock()
	scratch := rec.scratchPath
	rec.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rec.Stop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(scratch); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected scratch recording removed, stat err %v", err)
	}
}

func TestRequestPermissionIsCached(t *testing.T) {
	backend := &fakeBackend{probeErr: errors.New("permission denied")}
	rec := NewRecorder(backend, t.TempDir())

	if rec.RequestPermission(context.Background()) {
		t.Fatal("expected denial")
	}
	backend.probeErr = nil
	if rec.RequestPermission(context.Background()) {
		t.Fatal("expected cached denial")
	}
	if backend.probeCalls != 1 {
		t.Fatalf("expected one probe, got %d", backend.probeCalls)
	}
}

func TestNormalizeAmplitude(t *testing.T) {
	cases := []struct {
		powerDB float64
		want    float64
	}{
		{-60, 0},
		{-90, 0},
		{-30, 0.5},
		{0, 1},
		{6, 1},
	}

	for _, tc := range cases {
		if got := NormalizeAmplitude(tc.powerDB); got != tc.want {
			t.Fatalf("NormalizeAmplitude(%v) = %v, want %v", tc.powerDB, got, tc.want)
		}
	}
}
