package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"faceoverlay/internal/config"
	"faceoverlay/internal/dto"
	"faceoverlay/internal/logger"
	"faceoverlay/internal/models"
	"faceoverlay/internal/repository"
	"faceoverlay/internal/services/pipeline"
	"faceoverlay/internal/services/readiness"
	"faceoverlay/internal/services/render"
	"faceoverlay/internal/services/summary"
	"faceoverlay/internal/services/websocket"

	"github.com/google/uuid"
)

// Teksty statusu pokazywane w przeglądarce
const (
	StatusWaitingForStream = "Waiting for webcam..."
	StatusLoadingModels    = "Loading models..."
	StatusUnavailable      = "detection unavailable"
)

const (
	statusInterval = 500 * time.Millisecond
	runSyncEvery   = 20 // co ile ticków statusu zapisać statystyki przebiegu
)

// Stream is an attached live video source.
type Stream interface {
	pipeline.Source
	// Err returns the capture failure, if any.
	Err() error
	Close() error
}

// JPEGStream is implemented by streams that can encode their current frame.
type JPEGStream interface {
	SnapshotJPEG(quality int) (data []byte, seq uint64, ok bool, err error)
}

// StreamOpener opens the camera.
type StreamOpener func() (Stream, error)

// Dependencies collects what the Manager wires together.
type Dependencies struct {
	Loop       *pipeline.Loop
	Gate       *readiness.Gate
	Projector  *summary.Projector
	Recorder   *render.Recorder
	Hub        *websocket.HubService
	Runs       repository.RunRepository
	OpenStream StreamOpener
}

// Manager owns the detection loop's lifecycle and the stream, and forwards
// the loop's outputs to viewers.
type Manager struct {
	loop       *pipeline.Loop
	gate       *readiness.Gate
	projector  *summary.Projector
	recorder   *render.Recorder
	hub        *websocket.HubService
	runs       repository.RunRepository
	openStream StreamOpener
	config     *config.Config
	logger     *logger.Logger

	mu          sync.Mutex
	started     bool
	stream      Stream
	streamErr   error // błąd otwarcia kamery
	stopFrames  context.CancelFunc
	unsubscribe func()
	stopWatch   context.CancelFunc
	watchDone   chan struct{}
	run         *models.Run
	baseline    pipeline.Stats
	lastStatus  dto.StatusPayload
	hasStatus   bool
}

func NewManager(deps Dependencies, config *config.Config, logger *logger.Logger) *Manager {
	return &Manager{
		loop:       deps.Loop,
		gate:       deps.Gate,
		projector:  deps.Projector,
		recorder:   deps.Recorder,
		hub:        deps.Hub,
		runs:       deps.Runs,
		openStream: deps.OpenStream,
		config:     config,
		logger:     logger,
	}
}

// Start hooks the loop's outputs to the viewer hub, starts the loop and
// records a new run.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return pipeline.ErrRunning
	}

	m.recorder.OnPresent(func(list render.DisplayList) {
		m.broadcast(dto.MessageOverlay, list)
	})
	m.unsubscribe = m.projector.Subscribe(func(s models.Summary) {
		m.broadcast(dto.MessageSummary, dto.NewSummaryPayload(s))
	})

	if _, err := m.loop.Start(ctx); err != nil {
		m.unsubscribe()
		m.recorder.OnPresent(nil)
		return fmt.Errorf("failed to start detection loop: %w", err)
	}

	m.baseline = m.loop.Stats()
	m.run = &models.Run{
		ID:        uuid.NewString(),
		Camera:    m.config.CameraIndex,
		StartedAt: time.Now(),
	}
	if m.runs != nil {
		if err := m.runs.Insert(m.run); err != nil {
			m.logger.Warning("Failed to record run %s: %v", m.run.ID, err)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	m.stopWatch = cancel
	m.watchDone = make(chan struct{})
	go m.watch(watchCtx, m.watchDone)

	m.started = true
	m.logger.Info("🎬 Manager started - run %s", m.run.ID)
	return nil
}

// Stop cancels the loop, waits for its goroutine, closes the stream and
// stores the run's final counters.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.stopWatch()
	watchDone := m.watchDone
	m.unsubscribe()
	m.recorder.OnPresent(nil)
	m.loop.Stop()
	done := m.loop.Done()
	m.mu.Unlock()

	<-watchDone
	<-done

	m.DetachStream()

	m.mu.Lock()
	now := time.Now()
	m.run.StoppedAt = &now
	m.syncRunLocked()
	m.mu.Unlock()

	m.logger.Info("🛑 Manager stopped")
}

// AttachStream opens the camera and hands it to the loop. Attaching while
// a stream is attached is a no-op.
func (m *Manager) AttachStream() error {
	m.mu.Lock()
	attached := m.stream != nil
	m.mu.Unlock()

	if attached {
		return nil
	}
	if m.openStream == nil {
		return fmt.Errorf("no stream source configured")
	}

	// Otwieranie kamery blokuje, więc bez trzymania m.mu
	stream, err := m.openStream()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		if m.stream == nil {
			m.streamErr = err
			m.publishStatusLocked()
		}
		return err
	}
	if m.stream != nil {
		// Ktoś inny zdążył podłączyć strumień
		if err := stream.Close(); err != nil {
			m.logger.Warning("Failed to close duplicate stream: %v", err)
		}
		return nil
	}

	m.stream = stream
	m.streamErr = nil
	m.loop.AttachSource(stream)

	if js, ok := stream.(JPEGStream); ok && m.config.StreamFrames {
		ctx, cancel := context.WithCancel(context.Background())
		m.stopFrames = cancel
		go m.sendFrames(ctx, js)
	}

	m.publishStatusLocked()
	m.logger.Info("Stream attached")
	return nil
}

// DetachStream detaches and closes the stream.
func (m *Manager) DetachStream() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return
	}

	m.loop.DetachSource()
	if m.stopFrames != nil {
		m.stopFrames()
		m.stopFrames = nil
	}
	if err := m.stream.Close(); err != nil {
		m.logger.Warning("Failed to close stream: %v", err)
	}
	m.stream = nil
	m.streamErr = nil

	m.publishStatusLocked()
	m.logger.Info("Stream detached")
}

// Current returns the attached stream's latest frame, so the Manager can
// feed a local preview.
func (m *Manager) Current() (models.Frame, bool) {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()

	if stream == nil {
		return nil, false
	}
	return stream.Current()
}

// SendToViewers broadcasts one JPEG encoded frame.
func (m *Manager) SendToViewers(image []byte, seq uint64) {
	m.broadcast(dto.MessageFrame, dto.FramePayload{
		Image: base64.StdEncoding.EncodeToString(image),
		Seq:   seq,
	})
}

func (m *Manager) sendFrames(ctx context.Context, stream JPEGStream) {
	fps := m.config.CameraFPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, seq, ok, err := stream.SnapshotJPEG(m.config.JPEGQuality)
		if err != nil {
			m.logger.Warning("Failed to encode frame: %v", err)
			continue
		}
		if !ok || seq == lastSeq {
			continue
		}
		lastSeq = seq
		m.SendToViewers(data, seq)
	}
}

// Status reports readiness, stream state and loop counters.
func (m *Manager) Status() dto.StatusResponse {
	m.mu.Lock()
	status := m.statusLocked()
	runID := ""
	if m.run != nil {
		runID = m.run.ID
	}
	m.mu.Unlock()

	loading := false
	if !m.gate.Ready() && m.gate.Err() == nil {
		loading = true
	}

	return dto.StatusResponse{
		Ready:      m.gate.Ready(),
		Loading:    loading,
		Error:      status.Error,
		ModelError: status.ModelError,
		Stream:     status.Stream,
		Status:     status.Text,
		RunID:      runID,
		Loop:       m.loop.Stats(),
		Viewers:    m.hub.GetClientCount(),
	}
}

// Summary returns the current summary and its panel.
func (m *Manager) Summary() dto.SummaryPayload {
	return dto.NewSummaryPayload(m.projector.Current())
}

// Runs returns the most recent runs, newest first.
func (m *Manager) Runs(limit int) ([]models.Run, error) {
	if m.runs == nil {
		return []models.Run{}, nil
	}
	m.mu.Lock()
	if m.started {
		m.syncRunLocked()
	}
	m.mu.Unlock()
	return m.runs.GetRecent(limit)
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

// watch republishes the status whenever it changes and periodically stores
// the run's counters.
func (m *Manager) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	gateDone := m.gate.Done()
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-gateDone:
			gateDone = nil
		case <-ticker.C:
			ticks++
		}

		m.mu.Lock()
		m.publishStatusLocked()
		if ticks >= runSyncEvery {
			ticks = 0
			m.syncRunLocked()
		}
		m.mu.Unlock()
	}
}

func (m *Manager) statusLocked() dto.StatusPayload {
	status := dto.StatusPayload{
		Ready:  m.gate.Ready(),
		Stream: m.stream != nil,
	}

	streamErr := m.streamErr
	if m.stream != nil && streamErr == nil {
		streamErr = m.stream.Err()
	}
	gateErr := m.gate.Err()

	// Błąd modeli jest zawsze widoczny, także bez kamery
	if gateErr != nil {
		status.Error = gateErr.Error()
		status.ModelError = gateErr.Error()
	}

	switch {
	case streamErr != nil:
		status.Text = streamErr.Error()
		status.Error = streamErr.Error()
	case m.stream == nil:
		status.Text = StatusWaitingForStream
	case gateErr != nil:
		status.Text = StatusUnavailable
	case !status.Ready:
		status.Text = StatusLoadingModels
	}
	return status
}

func (m *Manager) publishStatusLocked() {
	status := m.statusLocked()
	if m.hasStatus && status == m.lastStatus {
		return
	}
	m.lastStatus = status
	m.hasStatus = true
	m.broadcast(dto.MessageStatus, status)
}

func (m *Manager) syncRunLocked() {
	if m.run == nil || m.runs == nil {
		return
	}

	stats := m.loop.Stats()
	m.run.Cycles = stats.Cycles - m.baseline.Cycles
	m.run.Idle = stats.Idle - m.baseline.Idle
	m.run.Inferences = stats.Inferences - m.baseline.Inferences
	m.run.Failures = stats.Failures - m.baseline.Failures
	m.run.Discarded = stats.Discarded - m.baseline.Discarded
	if err := m.gate.Err(); err != nil {
		m.run.ModelError = err.Error()
	}

	if err := m.runs.Update(m.run); err != nil {
		m.logger.Warning("Failed to update run %s: %v", m.run.ID, err)
	}
}

func (m *Manager) broadcast(kind string, payload interface{}) {
	if m.hub == nil {
		return
	}
	if err := m.hub.Broadcast(dto.ViewMessage{Type: kind, Payload: payload}); err != nil {
		m.logger.Error("Failed to broadcast %s: %v", kind, err)
	}
}
