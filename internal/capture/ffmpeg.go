package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rmsMetadataKey is the astats field ffmpeg prints for input power metering.
const rmsMetadataKey = "lavfi.astats.Overall.RMS_level"

// stopGrace is how long Stop waits for ffmpeg to finalize the output file
// after an interrupt before killing it.
const stopGrace = 3 * time.Second

// FFmpegBackend captures microphone audio by running ffmpeg against the
// platform capture device, with input power metering parsed from the astats
// filter output.
type FFmpegBackend struct {
	binary      string
	inputFormat string
	inputDevice string

	mu      sync.Mutex
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	waitErr chan error
	powerDB float64
}

// NewFFmpegBackend builds a backend around the given ffmpeg binary. An empty
// device selects the platform default capture device.
func NewFFmpegBackend(binary, device string) *FFmpegBackend {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	format, defaultDevice := platformInput()
	if strings.TrimSpace(device) == "" {
		device = defaultDevice
	}
	return &FFmpegBackend{
		binary:      binary,
		inputFormat: format,
		inputDevice: device,
		powerDB:     amplitudeFloorDB,
	}
}

func platformInput() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

// Probe verifies the capture tool is available before the first recording.
func (b *FFmpegBackend) Probe(_ context.Context) error {
	if _, err := exec.LookPath(b.binary); err != nil {
		return fmt.Errorf("microphone capture requires %s: %w", b.binary, err)
	}
	return nil
}

func (b *FFmpegBackend) captureArgs(destination string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", b.inputFormat,
		"-i", b.inputDevice,
		"-ac", "1",
		"-ar", "44100",
		"-af", "astats=metadata=1:reset=1,ametadata=print:key=" + rmsMetadataKey + ":file=-",
		"-y", destination,
	}
}

// Start launches the capture process and returns once it is running. A
// process that dies immediately is reported as a start failure.
func (b *FFmpegBackend) Start(ctx context.Context, destination string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cmd != nil {
		return ErrSessionBusy
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := exec.CommandContext(runCtx, b.binary, b.captureArgs(destination)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("capture pipe: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start capture session: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()
	go b.meterScan(stdout)

	// A device conflict or a bad input makes ffmpeg exit right away.
	select {
	case err := <-waitErr:
		cancel()
		return fmt.Errorf("capture session ended immediately: %w", errOrExit(err))
	case <-time.After(150 * time.Millisecond):
	}

	b.cmd = cmd
	b.cancel = cancel
	b.waitErr = waitErr
	b.powerDB = amplitudeFloorDB
	return nil
}

// Stop interrupts the capture process so ffmpeg finalizes the output file,
// waiting briefly before killing it outright.
func (b *FFmpegBackend) Stop() error {
	b.mu.Lock()
	cmd := b.cmd
	cancel := b.cancel
	waitErr := b.waitErr
	b.cmd = nil
	b.cancel = nil
	b.waitErr = nil
	b.powerDB = amplitudeFloorDB
	b.mu.Unlock()

	if cmd == nil {
		return ErrNoActiveSession
	}
	defer cancel()

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		cancel()
	}
	select {
	case <-waitErr:
	case <-time.After(stopGrace):
		cancel()
		<-waitErr
	}
	return nil
}

// PowerDB reports the most recent metered input power.
func (b *FFmpegBackend) PowerDB() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.powerDB
}

func (b *FFmpegBackend) meterScan(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if power, ok := parseRMSLine(scanner.Text()); ok {
			b.mu.Lock()
			b.powerDB = power
			b.mu.Unlock()
		}
	}
}

// parseRMSLine extracts the dB value from an ametadata print line such as
// "lavfi.astats.Overall.RMS_level=-31.4".
func parseRMSLine(line string) (float64, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, rmsMetadataKey+"=") {
		return 0, false
	}
	value := strings.TrimPrefix(trimmed, rmsMetadataKey+"=")
	if strings.EqualFold(value, "-inf") {
		return amplitudeFloorDB, true
	}
	power, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return power, true
}

func errOrExit(err error) error {
	if err == nil {
		return fmt.Errorf("process exited")
	}
	return err
}
