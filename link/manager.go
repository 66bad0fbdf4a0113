package link

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Associator joins a wireless network. On a Linux host association is owned
// by the OS supplicant, so the default implementation only records the request.
type Associator interface {
	Associate(ssid, credential string) error
}

// Prober reports whether the link is currently usable.
type Prober interface {
	Up() bool
}

// Manager establishes the link once at start-up and opens the dashboard
// listener when the link comes up.
type Manager struct {
	associator   Associator
	prober       Prober
	attempts     int
	pollInterval time.Duration
	listenAddr   string
	logger       *logrus.Logger

	mu       sync.Mutex
	listener net.Listener
}

type Opts struct {
	Attempts     int
	PollInterval time.Duration
	ListenAddr   string
}

func NewManager(associator Associator, prober Prober, opts Opts, logger *logrus.Logger) *Manager {
	return &Manager{
		associator:   associator,
		prober:       prober,
		attempts:     opts.Attempts,
		pollInterval: opts.PollInterval,
		listenAddr:   opts.ListenAddr,
		logger:       logger,
	}
}

// Connect asks the Associator to join ssid and waits for the link, polling
// once per interval up to the configured number of attempts. With
// SystemAssociator (the Linux default) ssid and credential are only logged:
// the OS supplicant must already be configured for the network. It never
// retries after returning; a false result stands until restart.
func (m *Manager) Connect(ctx context.Context, ssid, credential string) bool {
	m.logger.Infof("Connecting to WiFi SSID: %s", ssid)
	if err := m.associator.Associate(ssid, credential); err != nil {
		m.logger.Warnf("association request failed: %s", err.Error())
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for attempt := 0; !m.prober.Up() && attempt < m.attempts; attempt++ {
		select {
		case <-ctx.Done():
			m.logger.Warn("link association cancelled")
			return false
		case <-ticker.C:
		}
		m.logger.Debugf("waiting for link, attempt %d/%d", attempt+1, m.attempts)
	}

	if !m.prober.Up() {
		m.logger.Errorf("Failed to connect to WiFi after %d attempts", m.attempts)
		return false
	}

	ln, err := net.Listen("tcp", m.listenAddr)
	if err != nil {
		m.logger.Errorf("cannot open dashboard listener on %s: %s", m.listenAddr, err.Error())
		return false
	}
	m.mu.Lock()
	m.listener = ln
	m.mu.Unlock()
	m.logger.Infof("WiFi connected, dashboard listening on %s", ln.Addr())
	return true
}

// Connected re-evaluates the link status on every call.
func (m *Manager) Connected() bool {
	return m.prober.Up()
}

// Listener returns the dashboard listener, nil before a successful Connect.
func (m *Manager) Listener() net.Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener
}

// Close releases the listener.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil
	}
	err := m.listener.Close()
	m.listener = nil
	return err
}

// ListenAddr formats the dashboard port as a listen address on all interfaces.
func ListenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
