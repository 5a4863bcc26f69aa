// Package telemetry dispatches the per-tick output tuple to an MQTT broker.
// It is strictly downstream of the pipeline: nothing here feeds back into
// the estimation.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/gohrm/pkg/config"
	"github.com/itohio/gohrm/pkg/estimator"
)

// Reading is the published payload.
type Reading struct {
	Timestamp  time.Time `json:"ts"`
	Filtered   float32   `json:"filtered"`
	BPM        int       `json:"bpm"`
	Confidence int       `json:"confidence_pct"`
	Status     string    `json:"status"`
}

// Publisher publishes readings to an MQTT topic at a bounded rate.
type Publisher struct {
	cfg    config.TelemetryConfig
	client mqtt.Client

	mu          sync.Mutex
	lastPublish time.Time
}

// NewPublisher creates a Publisher from configuration.
func NewPublisher(cfg config.TelemetryConfig) *Publisher {
	return &Publisher{cfg: cfg}
}

// Connect establishes the broker session.
func (p *Publisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", p.cfg.Broker, p.cfg.Port))
	opts.SetClientID(p.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[telemetry] Connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Printf("[telemetry] Connected to %s:%d", p.cfg.Broker, p.cfg.Port)
	})

	p.client = mqtt.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	return nil
}

// Publish sends one result, honoring the configured minimum interval between
// publishes. Rate-limited calls return nil without sending.
func (p *Publisher) Publish(res estimator.Result) error {
	p.mu.Lock()
	if p.cfg.Interval > 0 && res.Timestamp.Sub(p.lastPublish) < p.cfg.Interval {
		p.mu.Unlock()
		return nil
	}
	p.lastPublish = res.Timestamp
	p.mu.Unlock()

	payload, err := json.Marshal(Reading{
		Timestamp:  res.Timestamp,
		Filtered:   res.Filtered,
		BPM:        res.BPM,
		Confidence: res.Confidence,
		Status:     res.Status.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish failed: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
