//go:build linux && !(mips || mipsle || mips64 || mips64le || ppc64 || ppc64le)

package linux

// Generic ioctl direction encoding: 14 size bits, 2 direction bits.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocSizeBits = 14
)
