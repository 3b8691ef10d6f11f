package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
device:
  id: "0020003935325105"
  host: "192.168.1.50"
  port: 4000
  password: "1111"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
poll:
  interval_seconds: 15
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "0020003935325105" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "0020003935325105")
	}

	if cfg.Device.Host != "192.168.1.50" {
		t.Errorf("Device.Host = %q, want %q", cfg.Device.Host, "192.168.1.50")
	}

	if cfg.Poll.IntervalSeconds != 15 {
		t.Errorf("Poll.IntervalSeconds = %d, want 15", cfg.Poll.IntervalSeconds)
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
device:
  id: ""
  host: "192.168.1.50"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty device.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	// validDevice satisfies all device-level requirements
	validDevice := DeviceConfig{
		ID:        "0020003935325105",
		Host:      "192.168.1.50",
		Port:      4000,
		Password:  "1111",
		TimeoutMS: 3500,
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Device: validDevice,
				Poll:   PollConfig{IntervalSeconds: 30},
				MQTT:   MQTTConfig{QoS: 1},
			},
			wantErr: false,
		},
		{
			name: "missing device ID",
			config: &Config{
				Device: DeviceConfig{Host: "192.168.1.50", Port: 4000, TimeoutMS: 3500},
				Poll:   PollConfig{IntervalSeconds: 30},
				MQTT:   MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "missing device host",
			config: &Config{
				Device: DeviceConfig{ID: "0020003935325105", Port: 4000, TimeoutMS: 3500},
				Poll:   PollConfig{IntervalSeconds: 30},
				MQTT:   MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "invalid device port",
			config: &Config{
				Device: DeviceConfig{ID: "0020003935325105", Host: "h", Port: 70000, TimeoutMS: 3500},
				Poll:   PollConfig{IntervalSeconds: 30},
				MQTT:   MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "zero timeout",
			config: &Config{
				Device: DeviceConfig{ID: "0020003935325105", Host: "h", Port: 4000, TimeoutMS: 0},
				Poll:   PollConfig{IntervalSeconds: 30},
				MQTT:   MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "zero poll interval",
			config: &Config{
				Device: validDevice,
				Poll:   PollConfig{IntervalSeconds: 0},
				MQTT:   MQTTConfig{QoS: 1},
			},
			wantErr: true,
		},
		{
			name: "invalid QoS",
			config: &Config{
				Device: validDevice,
				Poll:   PollConfig{IntervalSeconds: 30},
				MQTT:   MQTTConfig{QoS: 3},
			},
			wantErr: true,
		},
		{
			name: "discovery enabled without prefix",
			config: &Config{
				Device:        validDevice,
				Poll:          PollConfig{IntervalSeconds: 30},
				MQTT:          MQTTConfig{QoS: 1},
				HomeAssistant: HomeAssistantConfig{Enabled: true, DiscoveryPrefix: ""},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Device: DeviceConfig{TimeoutMS: 3500},
		Poll:   PollConfig{IntervalSeconds: 15},
	}

	if got := cfg.GetDeviceTimeout().Milliseconds(); got != 3500 {
		t.Errorf("GetDeviceTimeout() = %vms, want 3500ms", got)
	}

	if got := cfg.GetPollInterval().Seconds(); got != 15 {
		t.Errorf("GetPollInterval() = %vs, want 15s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("VENTSBRIDGE_DEVICE_ID", "1122334455667788")
	t.Setenv("VENTSBRIDGE_DEVICE_HOST", "10.0.0.9")
	t.Setenv("VENTSBRIDGE_DEVICE_PORT", "4001")
	t.Setenv("VENTSBRIDGE_DEVICE_PASSWORD", "secret")
	t.Setenv("VENTSBRIDGE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("VENTSBRIDGE_MQTT_USERNAME", "testuser")
	t.Setenv("VENTSBRIDGE_MQTT_PASSWORD", "testpass")
	t.Setenv("VENTSBRIDGE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Device.ID != "1122334455667788" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "1122334455667788")
	}

	if cfg.Device.Host != "10.0.0.9" {
		t.Errorf("Device.Host = %q, want %q", cfg.Device.Host, "10.0.0.9")
	}

	if cfg.Device.Port != 4001 {
		t.Errorf("Device.Port = %d, want 4001", cfg.Device.Port)
	}

	if cfg.Device.Password != "secret" {
		t.Errorf("Device.Password = %q, want %q", cfg.Device.Password, "secret")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_IgnoresBadPort(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("VENTSBRIDGE_DEVICE_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Device.Port != 4000 {
		t.Errorf("Device.Port = %d, want default 4000", cfg.Device.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Device.Port != 4000 {
		t.Errorf("defaultConfig Device.Port = %d, want 4000", cfg.Device.Port)
	}

	if cfg.Device.Password != "1111" {
		t.Errorf("defaultConfig Device.Password = %q, want %q", cfg.Device.Password, "1111")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.HomeAssistant.DiscoveryPrefix != "homeassistant" {
		t.Errorf("defaultConfig HomeAssistant.DiscoveryPrefix = %q, want %q",
			cfg.HomeAssistant.DiscoveryPrefix, "homeassistant")
	}
}
