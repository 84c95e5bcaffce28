//go:build linux

package linux

import "unsafe"

// ioctl numbers pack the command number into bits 0-7, the type character
// into bits 8-15 and the argument size and direction above that. The size
// width and direction values are per architecture (ioc_*.go).

const (
	iocNRBits   = 8
	iocTypeBits = 8

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func ior(typ, nr, size uintptr) uintptr  { return ioc(iocRead, typ, nr, size) }
func iow(typ, nr, size uintptr) uintptr  { return ioc(iocWrite, typ, nr, size) }
func iowr(typ, nr, size uintptr) uintptr { return ioc(iocRead|iocWrite, typ, nr, size) }
func ion(typ, nr uintptr) uintptr        { return ioc(iocNone, typ, nr, 0) }

// usbdevfs ioctl type character.
const usbdevfsType = 'U'

// usbdevfs ioctl command numbers.
const (
	nrSubmitURB        = 10
	nrDiscardURB       = 11
	nrReapURBNDelay    = 13
	nrClaimInterface   = 15
	nrReleaseInterface = 16
	nrIoctl            = 18
	nrReset            = 20
	nrDisconnect       = 22
)

var (
	ioctlSubmitURB        = ior(usbdevfsType, nrSubmitURB, unsafe.Sizeof(urb{}))
	ioctlDiscardURB       = ion(usbdevfsType, nrDiscardURB)
	ioctlReapURBNDelay    = iow(usbdevfsType, nrReapURBNDelay, unsafe.Sizeof(uintptr(0)))
	ioctlClaimInterface   = ior(usbdevfsType, nrClaimInterface, unsafe.Sizeof(uint32(0)))
	ioctlReleaseInterface = ior(usbdevfsType, nrReleaseInterface, unsafe.Sizeof(uint32(0)))
	ioctlIoctl            = iowr(usbdevfsType, nrIoctl, unsafe.Sizeof(usbIoctl{}))
	ioctlReset            = ion(usbdevfsType, nrReset)
	ioctlDisconnect       = ion(usbdevfsType, nrDisconnect)
)
