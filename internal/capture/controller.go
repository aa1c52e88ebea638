package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"log/slog"

	"murmur/internal/api"
	"murmur/internal/client"
	"murmur/internal/logging"
	"murmur/internal/memory"
	"murmur/internal/services"
)

// State is the capture session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	msgPermissionRequired = "Microphone permission is required. Please enable it in Settings."
	msgSessionConflict    = "Audio session conflict. Please close the app fully and reopen it."
	msgModeDisabled       = "Could not enable recording mode. Please restart the app and try again."
	msgStartGeneric       = "Failed to start recording. Please try again."
	msgProcessingTimeout  = "Processing took too long. Please try again."
	msgProcessGeneric     = "Failed to process your memory. Please try again."
	msgBackendUnreachable = "Could not reach the backend. Start the server and set MURMUR_API_BASE_URL if needed."
)

// AudioRecorder is the recording session half the controller drives.
type AudioRecorder interface {
	RequestPermission(ctx context.Context) bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) ([]byte, error)
	Cancel()
	Snapshot() Snapshot
}

// Processor performs the memo processing round trip.
type Processor interface {
	ProcessMemory(ctx context.Context, audioBase64 string) (api.ProcessMemoryResponse, error)
}

// MemorySink receives the memory constructed from a successful processing
// result.
type MemorySink interface {
	Add(ctx context.Context, m memory.Memory)
}

// Status is a point-in-time view of the controller for display.
type Status struct {
	State     State
	Message   string
	MemoryID  string
	Duration  time.Duration
	Amplitude float64
}

// Controller is the capture session state machine:
// Idle -> Recording -> Processing -> Done or Error, with Error -> Idle on
// explicit retry. A 60s auto-stop guards Recording and an independent 30s
// guard bounds Processing.
type Controller struct {
	recorder  AudioRecorder
	processor Processor
	store     MemorySink
	logger    *slog.Logger

	maxRecording      time.Duration
	processingTimeout time.Duration

	mu            sync.Mutex
	state         State
	message       string
	memoryID      string
	autoStop      *time.Timer
	processCancel context.CancelFunc
	tearingDown   bool
	processed     chan struct{}
}

// NewController wires the state machine. maxRecording bounds a single
// recording; processingTimeout bounds the stop-to-memory pipeline.
func NewController(recorder AudioRecorder, processor Processor, store MemorySink, maxRecording, processingTimeout time.Duration, logger *slog.Logger) *Controller {
	if maxRecording <= 0 {
		maxRecording = 60 * time.Second
	}
	if processingTimeout <= 0 {
		processingTimeout = 30 * time.Second
	}
	return &Controller{
		recorder:          recorder,
		processor:         processor,
		store:             store,
		logger:            logging.WithComponent(logger, "capture"),
		maxRecording:      maxRecording,
		processingTimeout: processingTimeout,
		state:             StateIdle,
	}
}

// Start begins recording. Permitted from Idle and from Error (an implicit
// retry); a no-op while Recording or Processing and once Done, which is
// terminal for the session. Permission denial and start failure both land in
// Error with a user-facing message.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateError {
		c.mu.Unlock()
		return nil
	}
	c.tearingDown = false
	c.mu.Unlock()

	if !c.recorder.RequestPermission(ctx) {
		c.fail(msgPermissionRequired)
		return errors.New(msgPermissionRequired)
	}

	if err := c.recorder.Start(ctx); err != nil {
		message := mapStartError(err)
		c.logger.Warn("recording start failed", logging.Error(err))
		c.fail(message)
		return errors.New(message)
	}

	c.mu.Lock()
	c.state = StateRecording
	c.message = ""
	c.memoryID = ""
	c.processed = make(chan struct{})
	c.autoStop = time.AfterFunc(c.maxRecording, func() {
		c.logger.Info("auto-stop ceiling reached")
		c.Stop()
	})
	c.mu.Unlock()

	c.logger.Info("recording started")
	return nil
}

// Stop ends the recording and kicks off processing in the background.
// Redundant triggers while already processing are no-ops, so the manual stop
// and the auto-stop guard can race safely.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.state = StateProcessing
	c.stopAutoStopLocked()

	ctx, cancel := context.WithTimeout(context.Background(), c.processingTimeout)
	c.processCancel = cancel
	done := c.processed
	c.mu.Unlock()

	go func() {
		defer cancel()
		defer close(done)
		c.process(ctx)
	}()
}

// Wait blocks until the in-flight processing run finishes or ctx expires.
// It returns the new memory id on success.
func (c *Controller) Wait(ctx context.Context) (string, error) {
	c.mu.Lock()
	done := c.processed
	c.mu.Unlock()
	if done == nil {
		return "", errors.New("no capture session in progress")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-done:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDone {
		return c.memoryID, nil
	}
	if c.message != "" {
		return "", errors.New(c.message)
	}
	return "", errors.New("capture session ended without a memory")
}

// Retry acknowledges an error and returns to Idle. Explicit user action only.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateError {
		c.state = StateIdle
		c.message = ""
	}
}

// Teardown abandons the session: every guard is cancelled, the in-flight
// processing run is cancelled, and any partial recording is discarded without
// persisting anything. The cancellation is deliberate, so it never lands in
// Error.
func (c *Controller) Teardown() {
	c.mu.Lock()
	c.tearingDown = true
	c.stopAutoStopLocked()
	if c.processCancel != nil {
		c.processCancel()
		c.processCancel = nil
	}
	c.state = StateIdle
	c.message = ""
	c.mu.Unlock()

	c.recorder.Cancel()
}

// Snapshot reports controller and recorder state for display.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	state := c.state
	message := c.message
	memoryID := c.memoryID
	c.mu.Unlock()

	rec := c.recorder.Snapshot()
	return Status{
		State:     state,
		Message:   message,
		MemoryID:  memoryID,
		Duration:  rec.Duration,
		Amplitude: rec.Amplitude,
	}
}

func (c *Controller) process(ctx context.Context) {
	data, err := c.recorder.Stop(ctx)
	if err != nil {
		c.finishFailure(guardFailure(ctx, err))
		return
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	result, err := c.processor.ProcessMemory(ctx, encoded)
	if err != nil {
		c.finishFailure(guardFailure(ctx, err))
		return
	}

	m := memory.New(result.Title, result.Category, result.ActionItems, result.Mood, result.Transcript)
	c.store.Add(context.WithoutCancel(ctx), m)

	c.mu.Lock()
	c.state = StateDone
	c.memoryID = m.ID
	c.processCancel = nil
	c.mu.Unlock()

	c.logger.Info("memory created",
		logging.String("memory_id", m.ID),
		logging.String("category", m.Category))
}

// guardFailure tags a failure caused by the processing guard elapsing, so
// the finish path classifies it with errors.Is instead of re-inspecting the
// context.
func guardFailure(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "capture", "process", "processing guard elapsed", err)
	}
	return err
}

func (c *Controller) finishFailure(err error) {
	c.mu.Lock()
	tearingDown := c.tearingDown
	c.processCancel = nil
	c.mu.Unlock()

	// Deliberate teardown cancels the run silently.
	if tearingDown {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return
	}

	// The processing guard fired: cancel what remains, then surface the
	// timeout message.
	if errors.Is(err, services.ErrTimeout) {
		c.recorder.Cancel()
		c.logger.Warn("processing guard fired")
		c.fail(msgProcessingTimeout)
		return
	}

	c.logger.Warn("memory processing failed", logging.Error(err))
	c.fail(mapProcessError(err))
}

func (c *Controller) fail(message string) {
	c.mu.Lock()
	c.state = StateError
	c.message = message
	c.mu.Unlock()
}

func (c *Controller) stopAutoStopLocked() {
	if c.autoStop != nil {
		c.autoStop.Stop()
		c.autoStop = nil
	}
}

// mapStartError translates a recorder start failure into a user-facing
// message by matching known failure text.
func mapStartError(err error) string {
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "permission"):
		return msgPermissionRequired
	case strings.Contains(text, "prepare"), strings.Contains(text, "session"), strings.Contains(text, "already"):
		return msgSessionConflict
	case strings.Contains(text, "mode"), strings.Contains(text, "disabled"):
		return msgModeDisabled
	default:
		return msgStartGeneric
	}
}

// mapProcessError translates a processing failure into a user-facing message.
// Typed client errors carry their own message; transport failures that look
// like an unreachable backend get a setup hint instead.
func mapProcessError(err error) string {
	message := strings.TrimSpace(client.MessageOf(err))
	if message == "" {
		return msgProcessGeneric
	}

	if errors.Is(err, client.ErrTransport) {
		lowered := strings.ToLower(message)
		if strings.Contains(lowered, "timed out") ||
			strings.Contains(lowered, "offline") ||
			strings.Contains(lowered, "could not connect") ||
			strings.Contains(lowered, "connection refused") {
			return msgBackendUnreachable
		}
	}
	return message
}
