package linux

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/xferreset/pkg"
)

// writeSysfs creates attribute files under dir.
func writeSysfs(t *testing.T, dir string, attrs map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, value := range attrs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// fakeSysfs builds a small /sys/bus/usb/devices tree.
func fakeSysfs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeSysfs(t, filepath.Join(root, "usb1"), map[string]string{
		"busnum": "1", "devnum": "1", "idVendor": "1d6b", "idProduct": "0002",
	})
	writeSysfs(t, filepath.Join(root, "1-1"), map[string]string{
		"busnum": "1", "devnum": "4", "idVendor": "046d", "idProduct": "c52b", "speed": "12",
	})
	writeSysfs(t, filepath.Join(root, "1-2"), map[string]string{
		"busnum": "1", "devnum": "17", "idVendor": "0525", "idProduct": "a4a0", "speed": "480",
	})
	writeSysfs(t, filepath.Join(root, "1-2", "1-2:1.0"), map[string]string{
		"bInterfaceNumber": "00",
	})
	writeSysfs(t, filepath.Join(root, "1-2:1.0"), map[string]string{
		"bInterfaceNumber": "00",
	})
	// Missing devnum: skipped.
	writeSysfs(t, filepath.Join(root, "2-1"), map[string]string{
		"busnum": "2", "idVendor": "0525", "idProduct": "a4a0",
	})
	return root
}

func TestScanUSBDevices(t *testing.T) {
	devices, err := scanUSBDevices(fakeSysfs(t))
	if err != nil {
		t.Fatalf("scanUSBDevices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("found %d devices, want 2", len(devices))
	}
}

func TestFindDevice(t *testing.T) {
	root := fakeSysfs(t)

	dev, err := findDevice(root, 0x0525, 0xa4a0)
	if err != nil {
		t.Fatalf("findDevice failed: %v", err)
	}
	if dev.busNum != 1 || dev.devNum != 17 {
		t.Errorf("bus/dev = %d/%d, want 1/17", dev.busNum, dev.devNum)
	}
	if dev.speed != "480" {
		t.Errorf("speed = %q, want %q", dev.speed, "480")
	}
	if !dev.hasInterface(0) || dev.hasInterface(1) {
		t.Errorf("interfaces = %v, want [0]", dev.interfaces)
	}
	if got := dev.devfsPath(DevfsUSBPath); got != "/dev/bus/usb/001/017" {
		t.Errorf("devfsPath = %q", got)
	}

	_, err = findDevice(root, 0xdead, 0xbeef)
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("missing device error = %v, want ErrNotFound", err)
	}

	_, err = findDevice(filepath.Join(root, "nope"), 0x0525, 0xa4a0)
	if err == nil || errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("unreadable root error = %v", err)
	}
}

func TestFormatDevfsPath(t *testing.T) {
	tests := []struct {
		busNum   uint8
		devNum   uint8
		expected string
	}{
		{1, 1, "/dev/bus/usb/001/001"},
		{1, 123, "/dev/bus/usb/001/123"},
		{12, 34, "/dev/bus/usb/012/034"},
		{255, 255, "/dev/bus/usb/255/255"},
	}

	for _, tt := range tests {
		got := formatDevfsPath(DevfsUSBPath, tt.busNum, tt.devNum)
		if got != tt.expected {
			t.Errorf("formatDevfsPath(%d, %d) = %q, want %q",
				tt.busNum, tt.devNum, got, tt.expected)
		}
	}
}

func TestReadSysfsHex(t *testing.T) {
	dir := t.TempDir()
	writeSysfs(t, dir, map[string]string{
		"plain":    "a4a0",
		"prefixed": "0x0525",
		"wide":     "12345",
		"garbage":  "zz",
	})

	if v, err := readSysfsHexUint16(filepath.Join(dir, "plain")); err != nil || v != 0xa4a0 {
		t.Errorf("plain = 0x%04x, %v", v, err)
	}
	if v, err := readSysfsHexUint16(filepath.Join(dir, "prefixed")); err != nil || v != 0x0525 {
		t.Errorf("prefixed = 0x%04x, %v", v, err)
	}
	if _, err := readSysfsHexUint16(filepath.Join(dir, "wide")); err == nil {
		t.Error("expected range error")
	}
	if _, err := readSysfsHexUint8(filepath.Join(dir, "garbage")); err == nil {
		t.Error("expected syntax error")
	}
}
