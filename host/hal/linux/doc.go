// Package linux provides a [hal.Device] for Linux using usbfs.
//
// The device node under /dev/bus/usb/ is located by scanning sysfs
// (/sys/bus/usb/devices/) for a vendor and product ID. Opening it detaches
// any kernel driver from the requested interface and claims it. It is
// designed for pure Go with no cgo dependencies; all kernel access goes
// through golang.org/x/sys/unix.
//
// # Requirements
//
// The user running the application must have read/write access to the USB
// device node. This typically requires either:
//   - Running as root
//   - A udev rule granting access to the user or group
//
// # Transfers
//
//   - Every transfer is a bulk URB submitted with USBDEVFS_SUBMITURB
//   - Cancellation is USBDEVFS_DISCARDURB; the URB still completes
//   - Completion is awaited with epoll on the device descriptor, next to an
//     eventfd that a cancelled context uses to interrupt the wait
//   - Completed URBs are reaped with USBDEVFS_REAPURBNDELAY
//   - Reset is USBDEVFS_RESET and may be issued while URBs are in flight
//
// URB completion status is the negative errno reported by the host
// controller driver; it is mapped onto [pkg.TransferStatus].
package linux
