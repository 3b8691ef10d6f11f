package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

const testHealthTopic = "vents/" + testDeviceID + "/bridge/health"

func createTestReporter(interval time.Duration, publisher HealthPublisher) *HealthReporter {
	return NewHealthReporter(HealthReporterConfig{
		DeviceID:      testDeviceID,
		Version:       "1.2.3",
		Interval:      interval,
		Publisher:     publisher,
		Topic:         testHealthTopic,
		RegisterCount: 20,
	})
}

func lastHealthMessage(t *testing.T, mq *MockMQTTClient) HealthMessage {
	t.Helper()
	p, ok := mq.LastPublished(testHealthTopic)
	if !ok {
		t.Fatal("No health message published")
	}
	if !p.Retained {
		t.Error("Health message not retained")
	}
	var msg HealthMessage
	if err := json.Unmarshal(p.Payload, &msg); err != nil {
		t.Fatalf("Failed to unmarshal health message: %v", err)
	}
	return msg
}

func TestHealthPublishNow(t *testing.T) {
	mq := NewMockMQTTClient()
	h := createTestReporter(time.Hour, mq)

	h.RecordPollSuccess(18)
	h.PublishNow()

	msg := lastHealthMessage(t, mq)
	if msg.Status != HealthHealthy {
		t.Errorf("Status = %q, want %q", msg.Status, HealthHealthy)
	}
	if msg.DeviceID != testDeviceID {
		t.Errorf("DeviceID = %q, want %q", msg.DeviceID, testDeviceID)
	}
	if msg.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", msg.Version)
	}
	if msg.RegisterCount != 20 {
		t.Errorf("RegisterCount = %d, want 20", msg.RegisterCount)
	}
	if msg.Polls.Succeeded != 1 || msg.Polls.LastRegisters != 18 {
		t.Errorf("Polls = %+v, want 1 success with 18 registers", msg.Polls)
	}
	if msg.Polls.LastSuccess == "" {
		t.Error("Polls.LastSuccess should be set after a successful poll")
	}
}

func TestHealthDegradedAfterPollFailure(t *testing.T) {
	mq := NewMockMQTTClient()
	h := createTestReporter(time.Hour, mq)

	h.RecordPollFailure()
	h.PublishNow()

	msg := lastHealthMessage(t, mq)
	if msg.Status != HealthDegraded {
		t.Errorf("Status = %q, want %q", msg.Status, HealthDegraded)
	}
	if msg.Reason != "last poll failed" {
		t.Errorf("Reason = %q, want \"last poll failed\"", msg.Reason)
	}
	if msg.Polls.Failed != 1 {
		t.Errorf("Polls.Failed = %d, want 1", msg.Polls.Failed)
	}
}

func TestHealthRecoversAfterSuccess(t *testing.T) {
	mq := NewMockMQTTClient()
	h := createTestReporter(time.Hour, mq)

	h.RecordPollFailure()
	h.RecordPollSuccess(20)
	h.PublishNow()

	msg := lastHealthMessage(t, mq)
	if msg.Status != HealthHealthy {
		t.Errorf("Status = %q, want %q after recovery", msg.Status, HealthHealthy)
	}
	if msg.Polls.Failed != 1 || msg.Polls.Succeeded != 1 {
		t.Errorf("Polls = %+v, want 1 failure and 1 success", msg.Polls)
	}
}

func TestHealthDegradedWhenDisconnected(t *testing.T) {
	mq := NewMockMQTTClient()
	mq.connected = false
	h := createTestReporter(time.Hour, mq)

	status, reason := h.determineStatus()
	if status != HealthDegraded {
		t.Errorf("Status = %q, want %q", status, HealthDegraded)
	}
	if reason != "MQTT disconnected" {
		t.Errorf("Reason = %q, want \"MQTT disconnected\"", reason)
	}
}

func TestHealthReportLoop(t *testing.T) {
	mq := NewMockMQTTClient()
	h := createTestReporter(10*time.Millisecond, mq)

	h.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	h.Stop()

	count := 0
	for _, p := range mq.GetPublished() {
		if p.Topic == testHealthTopic {
			count++
		}
	}
	// Initial publish, at least two ticks, final stopping message.
	if count < 4 {
		t.Errorf("Expected at least 4 health messages, got %d", count)
	}

	msg := lastHealthMessage(t, mq)
	if msg.Status != HealthStopping {
		t.Errorf("Final status = %q, want %q", msg.Status, HealthStopping)
	}

	// Calling Stop again should be safe (sync.Once)
	h.Stop()
}

func TestHealthDefaultInterval(t *testing.T) {
	h := createTestReporter(0, NewMockMQTTClient())
	if h.interval != defaultHealthInterval {
		t.Errorf("interval = %v, want %v", h.interval, defaultHealthInterval)
	}
}

func TestHealthNilPublisher(t *testing.T) {
	h := createTestReporter(time.Hour, nil)

	// Should not panic
	h.PublishNow()

	status, _ := h.determineStatus()
	if status != HealthDegraded {
		t.Errorf("Status = %q, want %q with nil publisher", status, HealthDegraded)
	}
}
