package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/xferreset/pkg"
)

// =============================================================================
// USB Device Information
// =============================================================================

// usbDeviceInfo holds information about a USB device discovered via sysfs.
type usbDeviceInfo struct {
	sysfsPath string // Path in /sys/bus/usb/devices
	busNum    uint8  // Bus number
	devNum    uint8  // Device number
	vendorID  uint16 // USB Vendor ID
	productID uint16 // USB Product ID
	speed     string // Link speed in Mbit/s as reported by sysfs

	interfaces []uint8 // bInterfaceNumber of every interface
}

// devfsPath returns the usbfs node for the device under root.
func (d *usbDeviceInfo) devfsPath(root string) string {
	return formatDevfsPath(root, d.busNum, d.devNum)
}

func (d *usbDeviceInfo) hasInterface(n uint8) bool {
	for _, iface := range d.interfaces {
		if iface == n {
			return true
		}
	}
	return false
}

// =============================================================================
// Sysfs Parsing
// =============================================================================

// scanUSBDevices lists the USB devices under a sysfs devices directory.
func scanUSBDevices(root string) ([]usbDeviceInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var devices []usbDeviceInfo
	for _, entry := range entries {
		name := entry.Name()

		// Devices look like "1-1" or "1-1.2". Root hubs ("usb1") and
		// interfaces ("1-1:1.0") are skipped.
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}

		info, err := parseUSBDevice(filepath.Join(root, name))
		if err != nil {
			continue
		}
		devices = append(devices, info)
	}
	return devices, nil
}

// findDevice returns the first device under root with the given IDs.
func findDevice(root string, vendorID, productID uint16) (usbDeviceInfo, error) {
	devices, err := scanUSBDevices(root)
	if err != nil {
		return usbDeviceInfo{}, fmt.Errorf("scan %s: %w", root, err)
	}
	for _, dev := range devices {
		if dev.vendorID == vendorID && dev.productID == productID {
			return dev, nil
		}
	}
	return usbDeviceInfo{}, fmt.Errorf("%w: device %04x:%04x", pkg.ErrNotFound, vendorID, productID)
}

func parseUSBDevice(sysfsPath string) (usbDeviceInfo, error) {
	info := usbDeviceInfo{sysfsPath: sysfsPath}

	var err error
	if info.busNum, err = readSysfsUint8(filepath.Join(sysfsPath, "busnum")); err != nil {
		return info, err
	}
	if info.devNum, err = readSysfsUint8(filepath.Join(sysfsPath, "devnum")); err != nil {
		return info, err
	}
	if info.vendorID, err = readSysfsHexUint16(filepath.Join(sysfsPath, "idVendor")); err != nil {
		return info, err
	}
	if info.productID, err = readSysfsHexUint16(filepath.Join(sysfsPath, "idProduct")); err != nil {
		return info, err
	}

	// Optional
	info.speed, _ = readSysfsString(filepath.Join(sysfsPath, "speed"))
	info.interfaces = scanInterfaces(sysfsPath)
	return info, nil
}

// scanInterfaces collects the interface numbers of a device. Interface
// entries are named <device>:<config>.<interface>.
func scanInterfaces(devicePath string) []uint8 {
	entries, err := os.ReadDir(devicePath)
	if err != nil {
		return nil
	}

	var interfaces []uint8
	prefix := filepath.Base(devicePath) + ":"
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		n, err := readSysfsHexUint8(filepath.Join(devicePath, entry.Name(), "bInterfaceNumber"))
		if err != nil {
			continue
		}
		interfaces = append(interfaces, n)
	}
	return interfaces
}

// =============================================================================
// Sysfs Read Helpers
// =============================================================================

func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readSysfsUint8(path string) (uint8, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 8)
	return uint8(v), err
}

func readSysfsHex(path string, bitSize int) (uint64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, bitSize)
}

func readSysfsHexUint8(path string) (uint8, error) {
	v, err := readSysfsHex(path, 8)
	return uint8(v), err
}

func readSysfsHexUint16(path string) (uint16, error) {
	v, err := readSysfsHex(path, 16)
	return uint16(v), err
}

// =============================================================================
// Path Helpers
// =============================================================================

// formatDevfsPath returns root/BBB/DDD with zero-padded bus and device
// numbers.
func formatDevfsPath(root string, busNum, devNum uint8) string {
	return fmt.Sprintf("%s/%03d/%03d", root, busNum, devNum)
}
