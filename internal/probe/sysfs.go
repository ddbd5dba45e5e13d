package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSysfsRoot and DefaultDevRoot are the Linux locations used when a
// Manager is built without explicit paths.
const (
	DefaultSysfsRoot = "/sys"
	DefaultDevRoot   = "/dev/bus/usb"
)

// DeviceInfo describes one enumerated USB device.
type DeviceInfo struct {
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int
	// SysPath is the sysfs directory the device was read from.
	SysPath string
}

// Selector returns the most specific selector for the device.
func (d DeviceInfo) Selector() Selector {
	return Selector{VendorID: d.VendorID, ProductID: d.ProductID, Serial: d.Serial}
}

// DevicePath returns the usbfs node of the device below devRoot.
func (d DeviceInfo) DevicePath(devRoot string) string {
	return filepath.Join(devRoot, fmt.Sprintf("%03d", d.Bus), fmt.Sprintf("%03d", d.Address))
}

// Lister enumerates attached USB devices.
type Lister interface {
	List() ([]DeviceInfo, error)
}

// SysfsLister reads USB devices from <Root>/bus/usb/devices.
type SysfsLister struct {
	Root string
}

// List returns every USB device (not interface) found in sysfs, in
// directory order. A missing devices directory yields an empty list.
func (l SysfsLister) List() ([]DeviceInfo, error) {
	root := l.Root
	if root == "" {
		root = DefaultSysfsRoot
	}
	dir := filepath.Join(root, "bus", "usb", "devices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	var out []DeviceInfo
	for _, e := range entries {
		// Interfaces are named like "1-1:1.0".
		if strings.Contains(e.Name(), ":") {
			continue
		}
		info, ok, err := readDevice(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, info)
		}
	}
	return out, nil
}

func readDevice(path string) (DeviceInfo, bool, error) {
	vid, ok, err := readAttr(path, "idVendor")
	if err != nil || !ok {
		return DeviceInfo{}, false, err
	}
	pid, ok, err := readAttr(path, "idProduct")
	if err != nil || !ok {
		return DeviceInfo{}, false, err
	}
	info := DeviceInfo{SysPath: path}
	if info.VendorID, err = parseID(vid); err != nil {
		return DeviceInfo{}, false, fmt.Errorf("%s: idVendor: %w", path, err)
	}
	if info.ProductID, err = parseID(pid); err != nil {
		return DeviceInfo{}, false, fmt.Errorf("%s: idProduct: %w", path, err)
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"serial", &info.Serial},
		{"manufacturer", &info.Manufacturer},
		{"product", &info.Product},
	} {
		v, _, err := readAttr(path, f.name)
		if err != nil {
			return DeviceInfo{}, false, err
		}
		*f.dst = v
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"busnum", &info.Bus},
		{"devnum", &info.Address},
	} {
		v, ok, err := readAttr(path, f.name)
		if err != nil {
			return DeviceInfo{}, false, err
		}
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return DeviceInfo{}, false, fmt.Errorf("%s: %s: %w", path, f.name, err)
		}
		*f.dst = n
	}
	return info, true, nil
}

// readAttr returns the trimmed content of a sysfs attribute; ok is false
// when the attribute does not exist.
func readAttr(dir, name string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", filepath.Join(dir, name), err)
	}
	return strings.TrimSpace(string(data)), true, nil
}
