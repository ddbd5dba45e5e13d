//go:build linux

package probe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManagerOpenClaimsDevice(t *testing.T) {
	devRoot := t.TempDir()
	info := DeviceInfo{VendorID: 0x1366, ProductID: 0x1015, Serial: "000683", Bus: 1, Address: 4}
	node := info.DevicePath(devRoot)
	if err := os.MkdirAll(filepath.Dir(node), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(node, nil, 0o600); err != nil {
		t.Fatalf("write node: %v", err)
	}
	m := &Manager{Lister: staticLister{info}, DevRoot: devRoot}
	sel := Selector{VendorID: 0x1366, ProductID: 0x1015}

	first, err := m.Open(sel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if first.Selector().Serial != "000683" {
		t.Fatalf("opened probe selector = %s, want serial 000683", first.Selector())
	}

	_, err = m.Open(sel)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second Open error = %v, want ErrBusy", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := m.Open(sel)
	if err != nil {
		t.Fatalf("Open after Close: %v", err)
	}
	if err := again.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
