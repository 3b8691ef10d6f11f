package bridge

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ventsbridge/core/internal/bgcp"
	"github.com/ventsbridge/core/internal/infrastructure/mqtt"
)

// Bridge operation constants.
const (
	// defaultPollInterval is used when no interval is configured.
	defaultPollInterval = 30 * time.Second

	// maxQoS is the highest valid MQTT QoS level.
	maxQoS = 2
)

// Bridge orchestrates bidirectional translation between the ventilation
// unit's register protocol and MQTT. It handles:
//   - Polling the unit's registers and publishing retained state updates
//   - Receiving register writes on command topics and applying them
//   - Home Assistant MQTT discovery
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use. The register
// session supports only one outstanding exchange at a time, so the poll
// loop and the MQTT command handlers serialise every client call
// through exchangeMu.
type Bridge struct {
	deviceID  string
	registers []bgcp.Register
	topics    mqtt.Topics
	qos       byte
	interval  time.Duration

	client  RegisterClient
	mqtt    MQTTClient
	metrics MetricsWriter // optional
	health  *HealthReporter

	// exchangeMu serialises access to the register client: the session
	// allows at most one in-flight request, and the poll loop and paho's
	// handler goroutines would otherwise race on it.
	exchangeMu sync.Mutex

	discovery       bool
	discoveryPrefix string

	// State cache for change detection
	stateCache   map[string]string
	stateCacheMu sync.Mutex

	// Shutdown coordination
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// RegisterClient is the interface for register exchanges with the unit.
// This allows mocking in tests and flexibility in implementation.
type RegisterClient interface {
	// ReadMany reads several registers in one exchange. Unanswered
	// registers are omitted from the result.
	ReadMany(regs []bgcp.Register) (map[string]any, error)

	// ReadOne reads a single register.
	ReadOne(reg bgcp.Register) (any, error)

	// WriteOne writes a register and returns the confirmed value.
	WriteOne(reg bgcp.Register, value any) (any, error)
}

// MQTTClient is the interface for MQTT operations.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// MetricsWriter records register readings in a time-series store.
// This is optional - if nil, the bridge operates without history.
type MetricsWriter interface {
	// WriteRegisterMetric records a numeric register reading.
	WriteRegisterMetric(deviceID string, register string, value float64)

	// WritePollStats records the outcome of one poll cycle.
	WritePollStats(deviceID string, registersRead int, duration time.Duration)
}

// Logger is the interface for optional structured logging.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// DeviceID is the controller serial, used as topic node and
	// discovery identifier.
	DeviceID string

	// Registers is the set of registers to poll and expose.
	// Defaults to bgcp.Catalog.
	Registers []bgcp.Register

	// Client is the register protocol client.
	Client RegisterClient

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Metrics is an optional time-series writer for register history.
	Metrics MetricsWriter

	// PollInterval is how often the register set is read.
	// Default: 30 seconds.
	PollInterval time.Duration

	// QoS is the MQTT QoS for state and command traffic. Used as
	// given: 0 (at most once) is a valid, honored level.
	QoS byte

	// Discovery enables Home Assistant MQTT discovery publishing.
	Discovery bool

	// DiscoveryPrefix is the discovery topic root. Default: "homeassistant".
	DiscoveryPrefix string

	// Version is the bridge software version for health messages.
	Version string

	// HealthInterval is how often health status is published.
	// Default: 30 seconds.
	HealthInterval time.Duration

	// Logger is optional structured logger.
	Logger Logger
}

// New creates a new bridge instance.
// Call Start() to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("device ID is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("register client is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.QoS > maxQoS {
		return nil, fmt.Errorf("invalid QoS %d", opts.QoS)
	}

	registers := opts.Registers
	if len(registers) == 0 {
		registers = bgcp.Catalog
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	prefix := opts.DiscoveryPrefix
	if prefix == "" {
		prefix = "homeassistant"
	}

	b := &Bridge{
		deviceID:        opts.DeviceID,
		registers:       registers,
		topics:          mqtt.Topics{DeviceID: opts.DeviceID},
		qos:             opts.QoS,
		interval:        interval,
		client:          opts.Client,
		mqtt:            opts.MQTTClient,
		metrics:         opts.Metrics, // May be nil (optional)
		discovery:       opts.Discovery,
		discoveryPrefix: prefix,
		stateCache:      make(map[string]string),
		done:            make(chan struct{}),
		logger:          opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		DeviceID:      opts.DeviceID,
		Version:       opts.Version,
		Interval:      opts.HealthInterval,
		Publisher:     opts.MQTTClient,
		Topic:         b.topics.Health(),
		RegisterCount: len(registers),
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start begins bridge operation.
// This publishes discovery configs, subscribes to command topics,
// and starts the poll loop and health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if b.discovery {
		if err := b.PublishDiscovery(); err != nil {
			return fmt.Errorf("publish discovery: %w", err)
		}
	}

	commandTopic := b.topics.CommandWildcard()
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	// Start health reporting
	b.health.Start(ctx)

	// Start the poll loop
	b.wg.Add(1)
	go b.pollLoop(ctx)

	b.logInfo("bridge started",
		"device_id", b.deviceID,
		"registers", len(b.registers),
		"poll_interval", b.interval)

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Stop accepting commands before the final health status goes out.
		if err := b.mqtt.Unsubscribe(b.topics.CommandWildcard()); err != nil {
			b.logError("failed to unsubscribe from commands", err)
		}

		// Stop health reporting (publishes a final status)
		b.health.Stop()

		// Wait for the poll loop
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// pollLoop reads the register set at the configured interval and
// publishes state updates. The first poll runs immediately.
func (b *Bridge) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.pollOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.pollOnce()
		}
	}
}

// pollOnce performs a single read of the full register set, publishing
// changed values retained and recording readings in the metrics store.
func (b *Bridge) pollOnce() {
	start := time.Now()

	b.exchangeMu.Lock()
	values, err := b.client.ReadMany(b.registers)
	b.exchangeMu.Unlock()
	if err != nil {
		b.health.RecordPollFailure()
		b.logError("poll failed", err)
		return
	}

	published := 0
	for _, reg := range b.registers {
		value, ok := values[reg.ResultKey()]
		if !ok {
			// Register unanswered this cycle; keep the last retained value.
			continue
		}

		formatted := formatValue(value)
		if b.publishState(reg, formatted) {
			published++
		}

		if b.metrics != nil {
			if metric, ok := metricValue(value); ok {
				b.metrics.WriteRegisterMetric(b.deviceID, reg.ResultKey(), metric)
			}
		}
	}

	b.health.RecordPollSuccess(len(values))

	if b.metrics != nil {
		b.metrics.WritePollStats(b.deviceID, len(values), time.Since(start))
	}

	b.logDebug("poll complete",
		"registers_read", len(values),
		"published", published,
		"duration", time.Since(start))
}

// publishState publishes a register value retained if it changed since
// the last publish. Returns true if a message was sent.
func (b *Bridge) publishState(reg bgcp.Register, formatted string) bool {
	if b.stateUnchanged(reg.ResultKey(), formatted) {
		return false
	}

	topic := b.topics.State(reg.ResultKey())
	if err := b.mqtt.Publish(topic, []byte(formatted), b.qos, true); err != nil {
		b.logError("failed to publish state", err)
		// Drop the cache entry so the value is retried next cycle.
		b.stateCacheMu.Lock()
		delete(b.stateCache, reg.ResultKey())
		b.stateCacheMu.Unlock()
		return false
	}
	return true
}

// handleCommand processes a register write arriving on a command topic.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	name, ok := b.topics.RegisterFromCommand(topic)
	if !ok {
		return fmt.Errorf("unexpected command topic: %s", topic)
	}

	reg, ok := b.findRegister(name)
	if !ok {
		return fmt.Errorf("unknown register: %s", name)
	}

	value, err := coerceCommand(reg, string(payload))
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}

	b.logInfo("received command", "register", name, "value", value)

	b.exchangeMu.Lock()
	confirmed, err := b.client.WriteOne(reg, value)
	b.exchangeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	// Publish the confirmed value immediately rather than waiting for
	// the next poll cycle.
	b.publishState(reg, formatValue(confirmed))

	return nil
}

// findRegister looks up one of the bridge's configured registers by its
// result key.
func (b *Bridge) findRegister(name string) (bgcp.Register, bool) {
	for _, r := range b.registers {
		if r.ResultKey() == name {
			return r, true
		}
	}
	return bgcp.Register{}, false
}

// coerceCommand converts a command payload into a typed value for the
// register's format.
//
// Booleans accept "1"/"0", "true"/"false" and "on"/"off" (any case).
// Integers and floats are parsed as decimal numbers.
func coerceCommand(reg bgcp.Register, payload string) (any, error) {
	payload = strings.TrimSpace(payload)

	switch reg.Format {
	case bgcp.FormatBoolean:
		switch strings.ToLower(payload) {
		case "1", "true", "on":
			return true, nil
		case "0", "false", "off":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean payload %q", payload)

	case bgcp.FormatInteger:
		v, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer payload %q", payload)
		}
		return v, nil

	case bgcp.FormatFloat:
		v, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float payload %q", payload)
		}
		return v, nil

	case bgcp.FormatString, bgcp.FormatIPv4:
		return payload, nil

	default:
		return []byte(payload), nil
	}
}

// formatValue renders a decoded register value as an MQTT payload.
//
// Booleans become "1"/"0" to match the discovery configs' payload_on
// and payload_off.
func formatValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	case []byte:
		return hex.EncodeToString(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// metricValue converts a decoded value to a float64 for time-series
// storage. Strings and raw bytes are not recorded.
func metricValue(value any) (float64, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// stateUnchanged checks if the new payload matches the cached state.
// Returns true if unchanged (should skip publish).
func (b *Bridge) stateUnchanged(register, formatted string) bool {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	if cached, ok := b.stateCache[register]; ok && cached == formatted {
		return true
	}

	b.stateCache[register] = formatted
	return false
}

// ClearStateCache removes all entries from the state cache, forcing the
// next poll to republish every register. Call this after an MQTT
// reconnect so the broker's retained values are refreshed.
func (b *Bridge) ClearStateCache() {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	b.stateCache = make(map[string]string)
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
