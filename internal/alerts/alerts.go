// Package alerts fans detector signals and exit events out to any interested
// sink — the dashboard's websocket hub and, optionally, a webhook endpoint.
// Adapted from internal/heuristics/alert_system.go's AlertManager (in-memory
// history + webhook delivery), repurposed from CoinJoin risk alerts to
// DetectorSignal/ExitEvent broadcast.
package alerts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/scfnet/scf-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

// Kind distinguishes what triggered an Alert.
type Kind string

const (
	KindSignal Kind = "signal"
	KindExit   Kind = "exit"
)

// Alert is one emitted notification, kept in the in-memory history that
// History returns (the last maxHistory alerts).
type Alert struct {
	TS      time.Time `json:"ts"`
	Kind    Kind      `json:"kind"`
	Pool    string    `json:"pool,omitempty"`
	Payload any       `json:"payload"`
}

const maxHistory = 500

// Manager holds recent alerts and fans each new one out to subscribers.
type Manager struct {
	mu         sync.RWMutex
	history    []Alert
	webhookURL string
	hc         *http.Client
	log        *logrus.Entry
	broadcast  func(any)
}

// New builds a Manager. webhookURL may be empty, disabling webhook delivery.
func New(webhookURL string, log *logrus.Entry) *Manager {
	return &Manager{
		webhookURL: webhookURL,
		hc:         &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

// SetBroadcast wires the dashboard hub's broadcast function (called for
// every new alert in addition to webhook delivery and history).
func (m *Manager) SetBroadcast(fn func(any)) {
	m.broadcast = fn
}

// EmitSignal records and fans out a new detector signal.
func (m *Manager) EmitSignal(sig models.DetectorSignal) {
	m.emit(Alert{TS: time.Now().UTC(), Kind: KindSignal, Pool: sig.Pool, Payload: sig})
}

// EmitExit records and fans out a new exit event.
func (m *Manager) EmitExit(evt models.ExitEvent) {
	m.emit(Alert{TS: time.Now().UTC(), Kind: KindExit, Payload: evt})
}

func (m *Manager) emit(a Alert) {
	m.mu.Lock()
	m.history = append(m.history, a)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.mu.Unlock()

	if m.broadcast != nil {
		m.broadcast(a)
	}
	if m.webhookURL != "" {
		go m.deliverWebhook(a)
	}
}

// History returns a snapshot of recent alerts, oldest first.
func (m *Manager) History() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Alert, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Manager) deliverWebhook(a Alert) {
	body, err := json.Marshal(a)
	if err != nil {
		m.log.WithError(err).Error("alerts: marshal webhook payload failed")
		return
	}
	resp, err := m.hc.Post(m.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		m.log.WithError(err).Warn("alerts: webhook delivery failed")
		return
	}
	resp.Body.Close()
}
