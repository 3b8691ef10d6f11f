package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Health reporting constants.
const (
	// defaultHealthInterval is how often health status is published.
	defaultHealthInterval = 30 * time.Second

	// healthQoS ensures health messages are delivered at least once.
	healthQoS = 1
)

// Health status values.
const (
	// HealthHealthy means polls and broker connectivity are both good.
	HealthHealthy = "healthy"

	// HealthDegraded means the bridge is running but the last poll
	// failed or the broker connection is down.
	HealthDegraded = "degraded"

	// HealthStopping is published once during graceful shutdown.
	HealthStopping = "stopping"
)

// HealthPublisher is the interface for publishing health messages.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthMessage is the JSON structure published to the health topic.
type HealthMessage struct {
	DeviceID      string `json:"device_id"`
	Version       string `json:"version,omitempty"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	Timestamp     string `json:"timestamp"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	RegisterCount int    `json:"register_count"`
	Polls         struct {
		Succeeded     int64  `json:"succeeded"`
		Failed        int64  `json:"failed"`
		LastSuccess   string `json:"last_success,omitempty"`
		LastRegisters int    `json:"last_registers"`
	} `json:"polls"`
}

// HealthReporterConfig holds configuration for creating a health reporter.
type HealthReporterConfig struct {
	// DeviceID identifies the unit this bridge serves.
	DeviceID string

	// Version is the bridge software version.
	Version string

	// Interval is how often status is published. Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT publisher for health messages.
	Publisher HealthPublisher

	// Topic is the health topic.
	Topic string

	// RegisterCount is the number of registers the bridge polls.
	RegisterCount int
}

// HealthReporter publishes periodic health status for the bridge.
// Poll outcomes are recorded by the poll loop and folded into the
// reported status.
type HealthReporter struct {
	deviceID      string
	version       string
	interval      time.Duration
	publisher     HealthPublisher
	topic         string
	registerCount int
	startTime     time.Time

	// Poll statistics
	statsMu       sync.Mutex
	pollsOK       int64
	pollsFailed   int64
	lastSuccess   time.Time
	lastFailed    bool
	lastRegisters int

	// Shutdown coordination
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a health reporter for the bridge.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &HealthReporter{
		deviceID:      cfg.DeviceID,
		version:       cfg.Version,
		interval:      interval,
		publisher:     cfg.Publisher,
		topic:         cfg.Topic,
		registerCount: cfg.RegisterCount,
		startTime:     time.Now(),
		done:          make(chan struct{}),
	}
}

// Start begins periodic health reporting.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop halts reporting and publishes a final "stopping" status.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.publishStatus(HealthStopping, "graceful shutdown")
	})
}

// PublishNow publishes the current status immediately, outside the
// regular cadence.
func (h *HealthReporter) PublishNow() {
	status, reason := h.determineStatus()
	h.publishStatus(status, reason)
}

// RecordPollSuccess notes a completed poll cycle and how many registers
// it returned.
func (h *HealthReporter) RecordPollSuccess(registers int) {
	h.statsMu.Lock()
	h.pollsOK++
	h.lastSuccess = time.Now()
	h.lastFailed = false
	h.lastRegisters = registers
	h.statsMu.Unlock()
}

// RecordPollFailure notes a failed poll cycle.
func (h *HealthReporter) RecordPollFailure() {
	h.statsMu.Lock()
	h.pollsFailed++
	h.lastFailed = true
	h.statsMu.Unlock()
}

// SetLogger sets the logger for the health reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// reportLoop publishes status at the configured interval.
func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.PublishNow()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.PublishNow()
		}
	}
}

// determineStatus derives the current status from poll stats and broker
// connectivity.
func (h *HealthReporter) determineStatus() (status, reason string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}

	h.statsMu.Lock()
	lastFailed := h.lastFailed
	h.statsMu.Unlock()

	if lastFailed {
		return HealthDegraded, "last poll failed"
	}
	return HealthHealthy, ""
}

// publishStatus marshals and publishes a health message, retained so
// late subscribers always see the latest state.
func (h *HealthReporter) publishStatus(status, reason string) {
	if h.publisher == nil {
		return
	}

	msg := HealthMessage{
		DeviceID:      h.deviceID,
		Version:       h.version,
		Status:        status,
		Reason:        reason,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		RegisterCount: h.registerCount,
	}

	h.statsMu.Lock()
	msg.Polls.Succeeded = h.pollsOK
	msg.Polls.Failed = h.pollsFailed
	msg.Polls.LastRegisters = h.lastRegisters
	if !h.lastSuccess.IsZero() {
		msg.Polls.LastSuccess = h.lastSuccess.UTC().Format(time.RFC3339)
	}
	h.statsMu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logError("failed to marshal health message", err)
		return
	}

	if err := h.publisher.Publish(h.topic, payload, healthQoS, true); err != nil {
		h.logError("failed to publish health status", err)
	}
}

// logError logs an error message if logger is set.
func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
