package probe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrNotFound means no attached device matches the selector.
	ErrNotFound = errors.New("no matching probe attached")
	// ErrAmbiguous means several devices match a selector without serial.
	ErrAmbiguous = errors.New("selector matches more than one probe")
	// ErrBusy means the probe is already claimed by another handle or process.
	ErrBusy = errors.New("probe is already in use")
	// ErrUnsupported is returned on platforms without usbfs.
	ErrUnsupported = errors.New("opening probes is not supported on this platform")
)

// Manager enumerates and opens debug probes.
type Manager struct {
	Lister  Lister
	DevRoot string
	Logger  *slog.Logger
}

// NewManager returns a Manager reading sysfs below sysRoot and opening
// device nodes below devRoot. Empty arguments select the Linux defaults.
func NewManager(sysRoot, devRoot string) *Manager {
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	return &Manager{Lister: SysfsLister{Root: sysRoot}, DevRoot: devRoot}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// List returns every attached USB device.
func (m *Manager) List() ([]DeviceInfo, error) {
	if m.Lister == nil {
		return SysfsLister{}.List()
	}
	return m.Lister.List()
}

// Open claims the single device matching sel. Every call performs a fresh
// enumeration and open; nothing is cached.
func (m *Manager) Open(sel Selector) (*Probe, error) {
	devices, err := m.List()
	if err != nil {
		return nil, err
	}
	var matches []DeviceInfo
	for _, d := range devices {
		if sel.Matches(d) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sel)
	case 1:
	default:
		serials := make([]string, 0, len(matches))
		for _, d := range matches {
			serials = append(serials, d.Selector().String())
		}
		return nil, fmt.Errorf("%w: %s (candidates: %s)", ErrAmbiguous, sel, strings.Join(serials, ", "))
	}

	info := matches[0]
	devRoot := m.DevRoot
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	path := info.DevicePath(devRoot)
	m.logger().Debug("opening probe", "selector", sel.String(), "device", path)
	dev, err := openDevice(path)
	if err != nil {
		return nil, err
	}
	return New(info.Selector(), info, dev), nil
}

// Probe is an opened debug probe. Close releases the claim.
type Probe struct {
	selector Selector
	info     DeviceInfo

	mu  sync.Mutex
	dev io.Closer
}

// New wraps an opened device. dev may be nil for probes without an OS handle.
func New(sel Selector, info DeviceInfo, dev io.Closer) *Probe {
	return &Probe{selector: sel, info: info, dev: dev}
}

// Selector returns the fully qualified selector of the opened device.
func (p *Probe) Selector() Selector { return p.selector }

// Info returns the enumeration data of the opened device.
func (p *Probe) Info() DeviceInfo { return p.info }

// Close releases the device. Calling Close more than once is a no-op.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dev == nil {
		return nil
	}
	err := p.dev.Close()
	p.dev = nil
	return err
}
