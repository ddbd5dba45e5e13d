package probe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeUSB struct {
	name         string
	vid, pid     string
	serial       string
	bus, devnum  string
	manufacturer string
}

// writeSysfs lays out a fake sysfs tree and returns its root.
func writeSysfs(t *testing.T, devices ...fakeUSB) string {
	t.Helper()
	root := t.TempDir()
	base := filepath.Join(root, "bus", "usb", "devices")
	for _, d := range devices {
		dir := filepath.Join(base, d.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		attrs := map[string]string{
			"idVendor":     d.vid,
			"idProduct":    d.pid,
			"serial":       d.serial,
			"busnum":       d.bus,
			"devnum":       d.devnum,
			"manufacturer": d.manufacturer,
		}
		for k, v := range attrs {
			if v == "" {
				continue
			}
			if err := os.WriteFile(filepath.Join(dir, k), []byte(v+"\n"), 0o600); err != nil {
				t.Fatalf("write %s: %v", k, err)
			}
		}
	}
	// An interface directory without ids must be skipped.
	if err := os.MkdirAll(filepath.Join(base, "1-1:1.0"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return root
}

func TestSysfsListerList(t *testing.T) {
	root := writeSysfs(t,
		fakeUSB{name: "1-1", vid: "1366", pid: "1015", serial: "000683", bus: "1", devnum: "4", manufacturer: "SEGGER"},
		fakeUSB{name: "2-3", vid: "0483", pid: "374b", bus: "2", devnum: "7"},
	)
	got, err := SysfsLister{Root: root}.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d devices, want 2: %+v", len(got), got)
	}
	if got[0].VendorID != 0x1366 || got[0].Serial != "000683" || got[0].Bus != 1 || got[0].Address != 4 || got[0].Manufacturer != "SEGGER" {
		t.Fatalf("unexpected first device: %+v", got[0])
	}
	if got[1].Serial != "" || got[1].ProductID != 0x374b {
		t.Fatalf("unexpected second device: %+v", got[1])
	}
	if p := got[1].DevicePath("/dev/bus/usb"); p != "/dev/bus/usb/002/007" {
		t.Fatalf("DevicePath = %q", p)
	}
}

func TestSysfsListerMissingRoot(t *testing.T) {
	got, err := SysfsLister{Root: filepath.Join(t.TempDir(), "nope")}.List()
	if err != nil || len(got) != 0 {
		t.Fatalf("List on missing root = %v, %v; want empty, nil", got, err)
	}
}

type staticLister []DeviceInfo

func (s staticLister) List() ([]DeviceInfo, error) { return s, nil }

func TestManagerOpenSelection(t *testing.T) {
	devs := staticLister{
		{VendorID: 0x0483, ProductID: 0x374b, Serial: "A", Bus: 1, Address: 2},
		{VendorID: 0x0483, ProductID: 0x374b, Serial: "B", Bus: 1, Address: 3},
	}
	m := &Manager{Lister: devs, DevRoot: t.TempDir()}

	_, err := m.Open(Selector{VendorID: 0x1366, ProductID: 0x1015})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open(absent) error = %v, want ErrNotFound", err)
	}
	_, err = m.Open(Selector{VendorID: 0x0483, ProductID: 0x374b})
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("Open(ambiguous) error = %v, want ErrAmbiguous", err)
	}
	// Device node does not exist below DevRoot.
	_, err = m.Open(Selector{VendorID: 0x0483, ProductID: 0x374b, Serial: "A"})
	if err == nil {
		t.Fatal("Open without a device node should fail")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAmbiguous) {
		t.Fatalf("unexpected selection error: %v", err)
	}
}

func TestProbeCloseIsIdempotent(t *testing.T) {
	closes := 0
	p := New(Selector{VendorID: 1, ProductID: 2}, DeviceInfo{}, closerFunc(func() error {
		closes++
		return nil
	}))
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if closes != 1 {
		t.Fatalf("device closed %d times, want 1", closes)
	}
	if got := New(Selector{}, DeviceInfo{}, nil).Close(); got != nil {
		t.Fatalf("Close on probe without device = %v", got)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
