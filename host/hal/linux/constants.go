package linux

// =============================================================================
// Paths
// =============================================================================

const (
	// SysfsUSBPath is where sysfs lists USB devices and interfaces.
	SysfsUSBPath = "/sys/bus/usb/devices"

	// DevfsUSBPath holds the usbfs nodes, one per device at BBB/DDD.
	DevfsUSBPath = "/dev/bus/usb"
)

// =============================================================================
// URBs
// =============================================================================

// URBTypeBulk is the usbdevfs_urb type of every URB the device submits.
// Short reads are accepted, so no URB flags are set.
const URBTypeBulk = 3

// MaxBulkURBSize is the largest buffer one bulk URB carries without raising
// the usbfs_memory_mb module parameter on older kernels.
const MaxBulkURBSize = 16 * 1024

// MaxEpollEvents sizes the epoll_wait buffer: the usbfs node and the wake
// eventfd.
const MaxEpollEvents = 2
