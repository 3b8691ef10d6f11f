// Vents Bridge - Ventilation Unit to MQTT Gateway
//
// This is the main entry point for the Vents Bridge application. It
// connects a Vents/Blauberg air handling unit's UDP register protocol
// to an MQTT broker, exposing the unit to Home Assistant via MQTT
// discovery and optionally recording register history in InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ventsbridge/core/internal/bgcp"
	"github.com/ventsbridge/core/internal/bridge"
	"github.com/ventsbridge/core/internal/infrastructure/config"
	"github.com/ventsbridge/core/internal/infrastructure/influxdb"
	"github.com/ventsbridge/core/internal/infrastructure/logging"
	"github.com/ventsbridge/core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Vents Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the register protocol session to the unit
	session, err := bgcp.NewSession(cfg.Device.ID, cfg.Device.Host,
		bgcp.WithPort(cfg.Device.Port),
		bgcp.WithPassword(cfg.Device.Password),
		bgcp.WithTimeout(cfg.GetDeviceTimeout()),
		bgcp.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("opening device session: %w", err)
	}
	defer func() {
		log.Info("closing device session")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing device session", "error", closeErr)
		}
	}()
	log.Info("device session opened",
		"device_id", cfg.Device.ID,
		"addr", fmt.Sprintf("%s:%d", cfg.Device.Host, cfg.Device.Port),
	)

	// Connect to MQTT broker. The availability topic carries the Last
	// Will so Home Assistant marks entities unavailable if the bridge
	// dies uncleanly.
	topics := mqtt.Topics{DeviceID: cfg.Device.ID}
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics.BridgeStatus())
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the bridge
	var metrics bridge.MetricsWriter
	if influxClient != nil {
		metrics = influxClient
	}
	b, err := bridge.New(bridge.Options{
		DeviceID:        cfg.Device.ID,
		Client:          session,
		MQTTClient:      mqttClient,
		Metrics:         metrics,
		PollInterval:    cfg.GetPollInterval(),
		QoS:             byte(cfg.MQTT.QoS),
		Discovery:       cfg.HomeAssistant.Enabled,
		DiscoveryPrefix: cfg.HomeAssistant.DiscoveryPrefix,
		Version:         version,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	// Refresh retained state after an MQTT reconnect
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		b.ClearStateCache()
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		b.Stop()
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Bridge (final health status)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (offline status)
	// 4. Device session

	log.Info("Vents Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VENTSBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VENTSBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Device reachability is verified by the bridge's first poll; a
	// quiet unit degrades health rather than blocking startup.

	return nil
}
