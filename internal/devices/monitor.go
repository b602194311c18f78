package devices

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"clapper/internal/logging"
)

// RemovalHandler is invoked when a watched device node disappears.
type RemovalHandler func(device string)

// Monitor listens for udev netlink remove events on a set of capture
// device nodes. An unplugged camera is reported through the handler so the
// recorder can abort the episode instead of waiting out read timeouts.
type Monitor struct {
	logger  *slog.Logger
	watched map[string]struct{}
	handler RemovalHandler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a monitor over the given device paths. A nil handler
// or empty device list yields a nil monitor, which is safe to Start and Stop.
func NewMonitor(logger *slog.Logger, devicePaths []string, handler RemovalHandler) *Monitor {
	if handler == nil || len(devicePaths) == 0 {
		return nil
	}
	watched := make(map[string]struct{}, len(devicePaths))
	for _, path := range devicePaths {
		path = strings.TrimSpace(path)
		if path != "" {
			watched[path] = struct{}{}
		}
	}
	if len(watched) == 0 {
		return nil
	}
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "device-monitor"),
		watched: watched,
		handler: handler,
	}
}

// Start begins listening for udev netlink events. Failure to connect is
// non-fatal: removal then surfaces through capture read timeouts instead.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; unplug detection unavailable",
			logging.Error(err))
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Debug("device monitor started", logging.Int("devices", len(m.watched)))
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches removal of video4linux nodes.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" {
		return
	}
	if _, ok := m.watched[devname]; !ok {
		m.logger.Debug("ignoring removal of unwatched device",
			logging.String(logging.FieldDevice, devname))
		return
	}
	m.logger.Warn("capture device removed",
		logging.String(logging.FieldDevice, devname))
	m.handler(devname)
}

// extractDeviceName gets the device path from a uevent.
func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/dev/") {
			return "/dev/" + devname
		}
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
